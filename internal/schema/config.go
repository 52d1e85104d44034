package schema

// MMDDYYYYPattern accepts MM/DD/YYYY dates from 1900 through 2099.
const MMDDYYYYPattern = `^(0[1-9]|1[0-2])/(0[1-9]|[12]\d|3[01])/(19|20)\d{2}$`

// CompilerConfig holds the injectable inputs of Compile beyond the dictionary.
type CompilerConfig struct {
	// DateHint selects DatePattern for date fields whose format mentions it.
	DateHint string `yaml:"date_hint"`

	// DatePattern is the pattern applied for DateHint dates.
	DatePattern string `yaml:"date_pattern"`

	// YearMinimum and YearMaximum bound integer fields formatted as "year".
	YearMinimum int `yaml:"year_minimum"`
	YearMaximum int `yaml:"year_maximum"`

	// MinCodeLength discards shorter enumeration codes while parsing.
	MinCodeLength int `yaml:"min_code_length"`

	// EnumSets are canonical code sets consulted when a dictionary does not
	// declare the set its allowed_values names.
	EnumSets map[string][]string `yaml:"enum_sets"`
}

// DefaultCompilerConfig returns the configuration used when none is supplied.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		DateHint:      "mm/dd/yyyy",
		DatePattern:   MMDDYYYYPattern,
		YearMinimum:   1900,
		YearMaximum:   2100,
		MinCodeLength: 1,
	}
}

func (c CompilerConfig) withDefaults() CompilerConfig {
	def := DefaultCompilerConfig()
	if c.DateHint == "" {
		c.DateHint = def.DateHint
	}
	if c.DatePattern == "" {
		c.DatePattern = def.DatePattern
	}
	if c.YearMinimum == 0 && c.YearMaximum == 0 {
		c.YearMinimum, c.YearMaximum = def.YearMinimum, def.YearMaximum
	}
	if c.MinCodeLength == 0 {
		c.MinCodeLength = def.MinCodeLength
	}
	return c
}

// RelaxConfig lists the properties Relax loosens. Entries are exact property
// names or path.Match patterns such as "*_phone".
type RelaxConfig struct {
	// NoisyFields lose pattern and format constraints.
	NoisyFields []string `yaml:"noisy_fields"`

	// FreeTextFields lose enum constraints.
	FreeTextFields []string `yaml:"free_text_fields"`
}
