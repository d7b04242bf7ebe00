package service

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"sisgeagro/models"

	"github.com/go-playground/validator/v10"
)

// RawRow CSV 原始行，键为小写表头
type RawRow map[string]string

// 每个字段接受一个英文和一个西班牙文表头
var columnAliases = map[string][2]string{
	"description":     {"description", "descripcion"},
	"amount":          {"amount", "monto"},
	"type":            {"type", "tipo"},
	"date":            {"date", "fecha"},
	"bill_number":     {"bill_number", "numero_factura"},
	"payment_type":    {"payment_type", "tipo_pago"},
	"entity_name":     {"entity_name", "entidad"},
	"fiscal_id":       {"fiscal_id", "cuit"},
	"category":        {"category", "categoria"},
	"subcategory":     {"subcategory", "subcategoria"},
	"verified":        {"verified", "verificado"},
	"taxes":           {"taxes", "impuestos"},
	"tax_names":       {"tax_names", "nombres_impuestos"},
	"tax_percentages": {"tax_percentages", "porcentajes_impuestos"},
}

// Get 按字段名取值，英文表头优先
func (r RawRow) Get(field string) string {
	aliases, ok := columnAliases[field]
	if !ok {
		return strings.TrimSpace(r[field])
	}
	for _, a := range aliases {
		if v, ok := r[a]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ParseCSV 解析分号分隔、带表头的 CSV
func ParseCSV(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, validationError("el archivo CSV está vacío")
		}
		return nil, validationError("CSV inválido: %v", err)
	}
	for i, h := range header {
		h = strings.TrimPrefix(h, "\xEF\xBB\xBF")
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, validationError("CSV inválido: %v", err)
		}
		row := make(RawRow, len(header))
		empty := true
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
				if strings.TrimSpace(record[i]) != "" {
					empty = false
				}
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// NormalizeDate 将 DD-MM-YYYY 或 DD/MM/YYYY 改写为 YYYY-MM-DD，其他格式原样返回
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"-", "/"} {
		parts := strings.Split(s, sep)
		if len(parts) != 3 || len(parts[2]) != 4 || len(parts[0]) > 2 || len(parts[1]) > 2 {
			continue
		}
		if !allDigits(parts[0]) || !allDigits(parts[1]) || !allDigits(parts[2]) {
			continue
		}
		return parts[2] + "-" + twoDigits(parts[1]) + "-" + twoDigits(parts[0])
	}
	return s
}

func twoDigits(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseAmount 解析金额，兼容 1.234,56 与 1,234.56 两种写法
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// NormalizeMovementType 收支类型，兼容英文与带重音的写法
func NormalizeMovementType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ingreso", "income":
		return models.MovementIncome
	case "egreso", "expense":
		return models.MovementExpense
	case "inversion", "inversión", "investment":
		return models.MovementInvestment
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// ImportTax CSV 行中的税种
type ImportTax struct {
	Name       string  `json:"name" validate:"required"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

// ImportRecord 校验后的导入行
type ImportRecord struct {
	Row         int
	Description string  `validate:"required"`
	Amount      float64 `validate:"gt=0"`
	Type        string  `validate:"required,oneof=ingreso egreso inversion"`
	Date        string  `validate:"required,datetime=2006-01-02"`
	BillNumber  string  `validate:"required_unless=Type ingreso"`
	PaymentType string  `validate:"required"`
	EntityName  string  `validate:"required"`
	FiscalID    string  `validate:"required"`
	Category    string  `validate:"required"`
	Subcategory string  `validate:"required"`
	Verified    bool
	Taxes       []ImportTax `validate:"dive"`
}

// DateValue 已校验的日期
func (r ImportRecord) DateValue() time.Time {
	t, _ := time.Parse(DateLayout, r.Date)
	return t
}

var validate = validator.New()

var fieldLabels = map[string]string{
	"Description": "descripción",
	"Amount":      "monto",
	"Type":        "tipo",
	"Date":        "fecha",
	"BillNumber":  "número de factura",
	"PaymentType": "tipo de pago",
	"EntityName":  "entidad",
	"FiscalID":    "CUIT",
	"Category":    "categoría",
	"Subcategory": "subcategoría",
	"Name":        "nombre de impuesto",
	"Percentage":  "porcentaje de impuesto",
}

// BuildImportRecord 将原始行转换为校验后的导入行
func BuildImportRecord(index int, raw RawRow) (ImportRecord, error) {
	rec := ImportRecord{
		Row:         index,
		Description: raw.Get("description"),
		Type:        NormalizeMovementType(raw.Get("type")),
		Date:        NormalizeDate(raw.Get("date")),
		BillNumber:  raw.Get("bill_number"),
		PaymentType: raw.Get("payment_type"),
		EntityName:  raw.Get("entity_name"),
		FiscalID:    raw.Get("fiscal_id"),
		Category:    raw.Get("category"),
		Subcategory: raw.Get("subcategory"),
	}

	if a := raw.Get("amount"); a != "" {
		amount, err := ParseAmount(a)
		if err != nil {
			return rec, validationError("monto inválido: %q", a)
		}
		rec.Amount = amount
	}
	if v := strings.ToLower(raw.Get("verified")); v != "" {
		rec.Verified = v == "true" || v == "si" || v == "sí" || v == "1"
	}

	taxes, err := parseImportTaxes(raw)
	if err != nil {
		return rec, err
	}
	rec.Taxes = taxes

	if err := validate.Struct(rec); err != nil {
		return rec, describeValidation(err)
	}
	return rec, nil
}

// parseImportTaxes 支持 JSON 数组单元格，或成对的逗号分隔名称/税率单元格
func parseImportTaxes(raw RawRow) ([]ImportTax, error) {
	if cell := raw.Get("taxes"); cell != "" {
		var taxes []ImportTax
		if err := json.Unmarshal([]byte(cell), &taxes); err != nil {
			return nil, validationError("columna de impuestos inválida: %v", err)
		}
		for i := range taxes {
			taxes[i].Name = strings.TrimSpace(taxes[i].Name)
		}
		return taxes, nil
	}

	names := raw.Get("tax_names")
	if names == "" {
		return nil, nil
	}
	nameParts := strings.Split(names, ",")
	pctParts := strings.Split(raw.Get("tax_percentages"), ",")
	if len(nameParts) != len(pctParts) {
		return nil, validationError("la cantidad de impuestos (%d) no coincide con la de porcentajes (%d)", len(nameParts), len(pctParts))
	}
	taxes := make([]ImportTax, 0, len(nameParts))
	for i, n := range nameParts {
		p := strings.TrimSpace(pctParts[i])
		pct, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, validationError("porcentaje de impuesto inválido: %q", p)
		}
		taxes = append(taxes, ImportTax{Name: strings.TrimSpace(n), Percentage: pct})
	}
	return taxes, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validationError("fila inválida: %v", err)
	}
	fe := verrs[0]
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required", "required_unless":
		return validationError("falta el campo %s", label)
	case "oneof":
		return validationError("%s inválido: %v", label, fe.Value())
	case "datetime":
		return validationError("%s inválida, formato esperado DD/MM/YYYY o YYYY-MM-DD", label)
	default:
		return validationError("%s inválido", label)
	}
}
