package storage

// ===== HELPER FUNCTIONS =====

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

// normalizeLimit maps non-positive limits to the default and caps large ones
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
