package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bioshop/models"
	"bioshop/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImportResult summarizes a catalog import.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors"`
}

// RowError is a rejected CSV row. Row counts the header as row 1.
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// CatalogService bulk-loads products from CSV.
type CatalogService struct {
	products ProductUpserter
	currency string
	log      *zap.Logger
}

func NewCatalogService(products ProductUpserter, currency string, log *zap.Logger) *CatalogService {
	return &CatalogService{products: products, currency: currency, log: log}
}

var requiredColumns = []string{"name", "code", "price"}

// ImportCSV upserts one product per row, keyed by code. Bad rows are reported
// and skipped; a storage failure stops the import.
func (s *CatalogService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, validation("csv is empty")
	}
	if err != nil {
		return nil, validation("read csv header: %v", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, validation("csv is missing column %q", c)
		}
	}

	res := &ImportResult{Errors: []RowError{}}
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}
		field := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		p, err := s.productFromRow(field)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row, Code: field("code"), Message: err.Error()})
			continue
		}
		created, err := s.products.UpsertByCode(ctx, p)
		if errors.Is(err, store.ErrDuplicate) {
			res.Errors = append(res.Errors, RowError{Row: row, Code: p.Code, Message: "slug already used by another product"})
			continue
		}
		if err != nil {
			return res, fmt.Errorf("import row %d: %w", row, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	s.log.Info("catalog import finished",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("rejected", len(res.Errors)))
	return res, nil
}

func (s *CatalogService) productFromRow(field func(string) string) (*models.Product, error) {
	price, err := decimal.NewFromString(field("price"))
	if err != nil {
		return nil, validation("price %q is not a number", field("price"))
	}
	active := true
	if v := field("active"); v != "" {
		if active, err = strconv.ParseBool(v); err != nil {
			return nil, validation("active %q is not a boolean", v)
		}
	}
	p := &models.Product{
		Name:        field("name"),
		Code:        field("code"),
		Category:    field("category"),
		Description: field("description"),
		Price:       price,
		Currency:    s.currency,
		Active:      active,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
