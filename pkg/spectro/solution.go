package spectro

// SolidMass returns the grams of salt to weigh so that volumeML of solution
// holds concMgL of the analyte:
//
//	m = ((Mr_salt × C × V/1000) / Mr_analyte) / 1000
func SolidMass(saltMolarMass, analyteMolarMass, concMgL, volumeML float64) (float64, error) {
	if err := requirePositive("salt molar mass", saltMolarMass); err != nil {
		return 0, err
	}
	if err := requirePositive("analyte molar mass", analyteMolarMass); err != nil {
		return 0, err
	}
	if err := requirePositive("concentration", concMgL); err != nil {
		return 0, err
	}
	if err := requirePositive("volume", volumeML); err != nil {
		return 0, err
	}
	return ((saltMolarMass * concMgL * (volumeML / 1000)) / analyteMolarMass) / 1000, nil
}

// StockVolume returns V1 in C1·V1 = C2·V2: the volume of concentrated solution
// (c1) to dilute up to v2 at concentration c2.
func StockVolume(c1, c2, v2 float64) (float64, error) {
	if err := requirePositive("stock concentration", c1); err != nil {
		return 0, err
	}
	if err := requirePositive("target concentration", c2); err != nil {
		return 0, err
	}
	if err := requirePositive("target volume", v2); err != nil {
		return 0, err
	}
	return c2 * v2 / c1, nil
}
