package astro

// Data-size conversions used when sizing on-board storage and link budgets.

func KilobytesToBits(kb float64) float64 { return kb * 8000 }

func KilobytesToBytes(kb float64) float64 { return kb * 1000 }

func MegabytesToBytes(mb float64) float64 { return mb * 1e6 }

func GigabytesToBytes(gb float64) float64 { return gb * 1e9 }

func BitsToKilobytes(bits float64) float64 { return bits / 8000 }
