package valueobject

import "strings"

// SuggestPublicID превращает имя файла в желаемый идентификатор объекта:
// отбрасывается только последнее расширение ("a.b.png" -> "a.b").
// Пустой результат означает, что идентификатор выбирает хранилище.
func SuggestPublicID(fileName string) string {
	name := strings.TrimSpace(fileName)
	// путь клиента нам не нужен
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}
