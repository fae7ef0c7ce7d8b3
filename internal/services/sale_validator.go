package services

import (
	"fmt"
	"strings"

	"gym_sales_backend/internal/models"

	"github.com/shopspring/decimal"
)

// Problem codes reported by ValidateSaleItems.
const (
	ProblemNoItems           = "no_items"
	ProblemInvalidQuantity   = "invalid_quantity"
	ProblemProductNotFound   = "product_not_found"
	ProblemProductInactive   = "product_inactive"
	ProblemInsufficientStock = "insufficient_stock"
	ProblemPriceMismatch     = "price_mismatch"
)

// priceTolerance is the largest accepted gap between submitted and catalog price.
var priceTolerance = decimal.RequireFromString("0.01")

// ValidationProblem describes one thing wrong with one line of a sale request.
// Line is 1-based; it is 0 for problems that concern the request as a whole.
type ValidationProblem struct {
	Line      int    `json:"line"`
	ProductID int64  `json:"product_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// SaleValidationError carries every problem found in a sale request. It is never empty.
type SaleValidationError struct {
	Problems []ValidationProblem
}

func (e *SaleValidationError) Error() string {
	messages := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		if p.Line > 0 {
			messages[i] = fmt.Sprintf("item %d: %s", p.Line, p.Message)
		} else {
			messages[i] = p.Message
		}
	}
	return "sale validation failed: " + strings.Join(messages, "; ")
}

// ValidatedItem is a request line resolved against the catalog.
type ValidatedItem struct {
	Product   *models.Product
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// ValidateSaleItems checks every line against the catalog snapshot in products
// and returns either all lines resolved or every problem found. Lines that
// repeat a product draw from the same remaining stock.
func ValidateSaleItems(items []SaleItemRequest, products map[int64]*models.Product) ([]ValidatedItem, error) {
	if len(items) == 0 {
		return nil, &SaleValidationError{Problems: []ValidationProblem{{
			Code: ProblemNoItems, Message: "sale must contain at least one item",
		}}}
	}

	var problems []ValidationProblem
	validated := make([]ValidatedItem, 0, len(items))
	remaining := make(map[int64]int)

	for i, item := range items {
		line := i + 1
		report := func(code, format string, args ...interface{}) {
			problems = append(problems, ValidationProblem{
				Line: line, ProductID: item.ProductID, Code: code, Message: fmt.Sprintf(format, args...),
			})
		}

		if item.Quantity <= 0 {
			report(ProblemInvalidQuantity, "quantity must be positive, got %d", item.Quantity)
		}

		product, ok := products[item.ProductID]
		if !ok {
			report(ProblemProductNotFound, "product %d not found", item.ProductID)
			continue
		}
		if !product.IsActive() {
			report(ProblemProductInactive, "product %q is not active", product.Name)
		}

		if product.TracksInventory() && item.Quantity > 0 {
			available, seen := remaining[product.ID]
			if !seen {
				available = *product.Stock
			}
			if item.Quantity > available {
				report(ProblemInsufficientStock, "insufficient stock for %q, available %d requested %d",
					product.Name, available, item.Quantity)
			} else {
				available -= item.Quantity
			}
			remaining[product.ID] = available
		}

		if item.UnitPrice.Sub(product.Price).Abs().GreaterThan(priceTolerance) {
			report(ProblemPriceMismatch, "price mismatch for %q, current %s provided %s",
				product.Name, product.Price.StringFixed(2), item.UnitPrice.String())
		}

		unitPrice := item.UnitPrice.Round(2)
		validated = append(validated, ValidatedItem{
			Product:   product,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			Total:     unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	if len(problems) > 0 {
		return nil, &SaleValidationError{Problems: problems}
	}
	return validated, nil
}

// saleTotal sums the line totals.
func saleTotal(items []ValidatedItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total)
	}
	return total
}
