package content

// SampleRecord returns the demo input record used by the CLI and examples
// when no input file is supplied.
func SampleRecord() Record {
	return Record{
		"Product Name":    "GlowBoost Vitamin C Serum",
		"Concentration":   "10% Vitamin C",
		"Skin Type":       "Oily, Combination",
		"Key Ingredients": "Vitamin C, Hyaluronic Acid",
		"Benefits":        "Brightening, Fades dark spots",
		"How to Use":      "Apply 2-3 drops in the morning before sunscreen",
		"Side Effects":    "Mild tingling for sensitive skin",
		"Price":           699.0,
	}
}
