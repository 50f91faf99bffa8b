package weather

// Descriptor is the coarse weather label handed to the agent.
type Descriptor string

const (
	Hot      Descriptor = "Hot"
	Warm     Descriptor = "Warm"
	Mild     Descriptor = "Mild"
	Cool     Descriptor = "Cool"
	Cold     Descriptor = "Cold"
	Freezing Descriptor = "Freezing"
	VeryCold Descriptor = "Very Cold"
)

// Classify maps a whole-degree Celsius temperature to a Descriptor.
//
// The bands are evaluated in order and the final branch catches everything
// left over, so 0 through 5 degrees report VeryCold rather than Cold.
func Classify(celsius int) Descriptor {
	switch {
	case celsius >= 28:
		return Hot
	case 22 <= celsius && celsius <= 27:
		return Warm
	case 18 <= celsius && celsius <= 21:
		return Mild
	case 12 <= celsius && celsius <= 17:
		return Cool
	case 6 <= celsius && celsius <= 11:
		return Cold
	case celsius < 0:
		return Freezing
	default:
		return VeryCold
	}
}
