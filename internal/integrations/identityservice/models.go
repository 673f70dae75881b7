package identityservice

// Role роль вызывающего в системе управления доступом
type Role string

const (
	RoleCarrier  Role = "carrier"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Profile профиль вызывающего из Identity-сервиса
// TerminalIDs заполнен только для операторов - терминалы, на которых они работают
type Profile struct {
	ID          int64   `json:"id"`
	Role        Role    `json:"role"`
	DisplayName string  `json:"display_name"`
	TerminalIDs []int64 `json:"terminal_ids"`
}

// IsOperatorOf проверяет, что профиль - оператор (или админ) указанного терминала
// Админ имеет доступ ко всем терминалам
func (p *Profile) IsOperatorOf(terminalID int64) bool {
	if p.Role == RoleAdmin {
		return true
	}
	if p.Role != RoleOperator {
		return false
	}
	for _, id := range p.TerminalIDs {
		if id == terminalID {
			return true
		}
	}
	return false
}

// ErrorResponse модель ошибки от Identity-сервиса
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
