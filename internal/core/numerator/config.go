// Package numerator provides domain contracts for business number generation.
package numerator

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "B" for sale tickets)
	Prefix string

	// IncludeYear adds the year between prefix and counter
	IncludeYear bool

	// PadWidth is the minimum counter width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns a yearly-reset config with the year in the number.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// TicketConfig is the sale ticket numbering: B-00001, B-00002, ...
// The counter never resets.
func TicketConfig() Config {
	return Config{
		Prefix:      "B",
		PadWidth:    5,
		ResetPeriod: "never",
	}
}
