package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText devuelve el contenido en UTF-8. Con enc "auto" se asume UTF-8 si
// los bytes son válidos y Windows-1252 en caso contrario (planillas de Excel).
func decodeText(raw []byte, enc string) ([]byte, error) {
	var dec *encoding.Decoder
	switch strings.ToLower(enc) {
	case "", "auto":
		if utf8.Valid(raw) {
			return bytes.TrimPrefix(raw, utf8BOM), nil
		}
		dec = charmap.Windows1252.NewDecoder()
	case "utf-8", "utf8":
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("el archivo no es UTF-8 válido")
		}
		return bytes.TrimPrefix(raw, utf8BOM), nil
	case "latin1", "iso-8859-1", "iso8859-1":
		dec = charmap.ISO8859_1.NewDecoder()
	case "windows-1252", "cp1252":
		dec = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("codificación no soportada: %s", enc)
	}
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return nil, fmt.Errorf("decodificar %s: %w", enc, err)
	}
	return out, nil
}

// detectComma elige ';' cuando la cabecera lo usa (Excel en configuración regional es/pt).
func detectComma(text []byte) rune {
	header, _, _ := bytes.Cut(text, []byte("\n"))
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

// parseCatalog lee filas del catálogo. Las columnas se ubican por nombre de cabecera;
// name, category y unit son obligatorias.
func parseCatalog(r io.Reader, comma rune) ([]dto.CreateItemRequest, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"name", "category", "unit"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("falta la columna %q", req)
		}
	}

	var rows []dto.CreateItemRequest
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get("name") == "" && get("category") == "" && get("unit") == "" {
			continue
		}
		row := dto.CreateItemRequest{
			Name:     get("name"),
			Category: strings.ToLower(get("category")),
			Unit:     strings.ToLower(get("unit")),
			Supplier: get("supplier"),
			Location: get("location"),
			Barcode:  get("barcode"),
			Notes:    get("notes"),
		}
		if row.UnitPrice, err = parseNumber(get("unit_price")); err != nil {
			return nil, fmt.Errorf("línea %d unit_price: %w", line, err)
		}
		if row.Quantity, err = parseNumber(get("quantity")); err != nil {
			return nil, fmt.Errorf("línea %d quantity: %w", line, err)
		}
		if row.CriticalThreshold, err = parseNumber(get("critical_threshold")); err != nil {
			return nil, fmt.Errorf("línea %d critical_threshold: %w", line, err)
		}
		if row.PurchaseDate, err = parseOptionalDate(get("purchase_date")); err != nil {
			return nil, fmt.Errorf("línea %d purchase_date: %w", line, err)
		}
		if row.ExpirationDate, err = parseOptionalDate(get("expiration_date")); err != nil {
			return nil, fmt.Errorf("línea %d expiration_date: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseNumber acepta "1.5" y "1,5"; vacío es cero.
func parseNumber(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

func parseOptionalDate(s string) (*dto.Date, error) {
	if s == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &dto.Date{Time: t}, nil
}
