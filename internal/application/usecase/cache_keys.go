package usecase

import "fmt"

const listCachePrefix = "gallery:photos"

// listCacheKey генерирует ключ кэша страницы листинга
func listCacheKey(folder string, limit int, cursor string) string {
	if cursor == "" {
		cursor = "first"
	}
	return fmt.Sprintf("%s:%s:%d:%s", listCachePrefix, folder, limit, cursor)
}

// listCachePattern покрывает все закэшированные страницы папки
func listCachePattern(folder string) string {
	return fmt.Sprintf("%s:%s:*", listCachePrefix, folder)
}
