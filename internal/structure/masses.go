package structure

// atomicWeights holds standard atomic weights in daltons for the elements
// that occur in macromolecular structures.
var atomicWeights = map[string]float64{
	"H":  1.008,
	"D":  2.014,
	"HE": 4.0026,
	"LI": 6.94,
	"B":  10.81,
	"C":  12.011,
	"N":  14.007,
	"O":  15.999,
	"F":  18.998,
	"NA": 22.990,
	"MG": 24.305,
	"AL": 26.982,
	"SI": 28.085,
	"P":  30.974,
	"S":  32.06,
	"CL": 35.45,
	"K":  39.098,
	"CA": 40.078,
	"V":  50.942,
	"CR": 51.996,
	"MN": 54.938,
	"FE": 55.845,
	"CO": 58.933,
	"NI": 58.693,
	"CU": 63.546,
	"ZN": 65.38,
	"GA": 69.723,
	"AS": 74.922,
	"SE": 78.971,
	"BR": 79.904,
	"RB": 85.468,
	"SR": 87.62,
	"MO": 95.95,
	"CD": 112.414,
	"I":  126.904,
	"CS": 132.905,
	"BA": 137.327,
	"W":  183.84,
	"PT": 195.084,
	"AU": 196.967,
	"HG": 200.592,
	"PB": 207.2,
	"U":  238.029,
}

// AtomicWeight returns the standard atomic weight of an element symbol.
func AtomicWeight(element string) (float64, bool) {
	w, ok := atomicWeights[element]
	return w, ok
}
