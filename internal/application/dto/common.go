package dto

// MaxPage página más alta aceptada en listados.
const MaxPage = 100000

// PageRequest paginación para listados (page base 1).
type PageRequest struct {
	Page    int `query:"page" validate:"omitempty,min=1,max=100000"`
	PerPage int `query:"per_page" validate:"omitempty,min=1"`
}

// DefaultPage aplica valores por defecto y recorta PerPage a maxPerPage.
func (p *PageRequest) DefaultPage(maxPerPage int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PerPage <= 0 {
		p.PerPage = 15
	}
	if maxPerPage > 0 && p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
}

// Offset desplazamiento SQL de la página.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageMeta metadatos de página en respuestas de listado.
type PageMeta struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	From        *int `json:"from"`
	To          *int `json:"to"`
}

// NewPageMeta calcula last_page y el rango from/to (nulos si la página está vacía).
func NewPageMeta(p PageRequest, total, count int) PageMeta {
	last := 1
	if total > 0 {
		last = (total + p.PerPage - 1) / p.PerPage
	}
	meta := PageMeta{CurrentPage: p.Page, LastPage: last, PerPage: p.PerPage, Total: total}
	if count > 0 {
		from := p.Offset() + 1
		to := p.Offset() + count
		meta.From = &from
		meta.To = &to
	}
	return meta
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
