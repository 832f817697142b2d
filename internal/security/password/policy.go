package password

import "unicode"

// Policy es la política mínima de contraseñas para cuentas sembradas por el proceso.
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// Strict es la política exigida en prod.
var Strict = Policy{MinLength: 12, RequireUpper: true, RequireLower: true, RequireDigit: true}

// Check devuelve los motivos de rechazo; vacío significa que cumple.
func (p Policy) Check(s string) []string {
	var reasons []string
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if p.RequireUpper && !upper {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !lower {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !digit {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !symbol {
		reasons = append(reasons, "missing_symbol")
	}
	return reasons
}
