package service

import (
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// PagePolicy вычисляет эффективный размер страницы листинга (Domain Service)
type PagePolicy struct {
	defaultSize int
	maxSize     int
}

// NewPagePolicy создает политику; неположительные значения заменяются значениями по умолчанию
func NewPagePolicy(defaultSize, maxSize int) *PagePolicy {
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	return &PagePolicy{defaultSize: defaultSize, maxSize: maxSize}
}

// Clamp приводит запрошенный размер к допустимому диапазону
func (p *PagePolicy) Clamp(requested int) int {
	if requested <= 0 {
		return p.defaultSize
	}
	if requested > p.maxSize {
		return p.maxSize
	}
	return requested
}

// Parse разбирает значение query-параметра limit.
// Невалидное или отсутствующее значение дает размер по умолчанию.
func (p *PagePolicy) Parse(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return p.defaultSize
	}
	return p.Clamp(n)
}

func (p *PagePolicy) Default() int {
	return p.defaultSize
}

func (p *PagePolicy) Max() int {
	return p.maxSize
}
