package dto

import "math"

// PageResponse metadatos de página en respuestas (páginas desde 1, tamaño fijo).
type PageResponse struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

// NewPageResponse calcula el número de páginas.
func NewPageResponse(page, pageSize, total int) PageResponse {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return PageResponse{Page: page, PageSize: pageSize, Total: total, Pages: pages}
}

// MaxPage mayor página admitida con ese tamaño: (page-1)*pageSize no desborda int.
func MaxPage(pageSize int) int {
	if pageSize <= 0 {
		return math.MaxInt
	}
	return math.MaxInt / pageSize
}

// ErrorResponse cuerpo de error HTTP. Fields solo viene en errores de validación.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
