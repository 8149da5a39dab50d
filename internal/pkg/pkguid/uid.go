package pkguid

// StringID generates identifiers for sessions, reports and correlation IDs.
type StringID interface {
	Generate() string
}

// NumberID generates time-ordered numeric identifiers, used for job events.
type NumberID interface {
	Generate() int64
}

var (
	_ StringID = (*UUID)(nil)
	_ StringID = (*SnowflakeString)(nil)
	_ NumberID = (*Snowflake)(nil)
)
