// Package spectro holds the arithmetic of a UV-Vis spectrophotometric assay:
// preparing a stock solution, diluting it into a standard series, fitting the
// calibration line and back-calculating sample content.
//
// Concentrations are in mg/L, volumes in mL and masses in grams unless a
// name says otherwise. Every function is pure.
package spectro
