package valueobject

import "strings"

// Cursor представляет непрозрачный токен продолжения выборки (Value Object).
// Система никогда не разбирает и не конструирует его содержимое, только передает дальше.
type Cursor struct {
	token string
}

// NewCursor создает курсор из токена хранилища или клиента
func NewCursor(token string) Cursor {
	return Cursor{token: strings.TrimSpace(token)}
}

// IsEnd сообщает, что следующей страницы нет
func (c Cursor) IsEnd() bool {
	return c.token == ""
}

// String возвращает токен без изменений
func (c Cursor) String() string {
	return c.token
}

// Ptr возвращает nil для пустого курсора, что сериализуется в JSON null
func (c Cursor) Ptr() *string {
	if c.IsEnd() {
		return nil
	}
	token := c.token
	return &token
}
