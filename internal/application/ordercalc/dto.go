package ordercalc

import (
	"fmt"
	"maps"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/erp/ordercalc/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculatedTaxDTO is a tax amount at one rate
type CalculatedTaxDTO struct {
	Tax     decimal.Decimal `json:"tax"`
	TaxRate decimal.Decimal `json:"tax_rate" binding:"decimal_gte0"`
	Price   decimal.Decimal `json:"price"`
}

// TaxRuleDTO states which share of a price is taxed at a rate
type TaxRuleDTO struct {
	TaxRate    decimal.Decimal `json:"tax_rate" binding:"decimal_gte0"`
	Percentage decimal.Decimal `json:"percentage" binding:"decimal_gte0"`
}

// ReferencePriceDTO is the price per reference unit
type ReferencePriceDTO struct {
	Price         decimal.Decimal `json:"price"`
	PurchaseUnit  decimal.Decimal `json:"purchase_unit"`
	ReferenceUnit decimal.Decimal `json:"reference_unit"`
	UnitName      string          `json:"unit_name" binding:"max=50"`
}

// ListPriceDTO is an undiscounted comparison price
type ListPriceDTO struct {
	Price      decimal.Decimal `json:"price"`
	Discount   decimal.Decimal `json:"discount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// CalculatedPriceDTO is the price of a line item or of shipping costs
type CalculatedPriceDTO struct {
	UnitPrice       decimal.Decimal    `json:"unit_price"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
	Quantity        int                `json:"quantity"`
	CalculatedTaxes []CalculatedTaxDTO `json:"calculated_taxes" binding:"dive"`
	TaxRules        []TaxRuleDTO       `json:"tax_rules" binding:"dive"`
	ReferencePrice  *ReferencePriceDTO `json:"reference_price,omitempty"`
	ListPrice       *ListPriceDTO      `json:"list_price,omitempty"`
}

// CartPriceDTO holds the totals of an order
type CartPriceDTO struct {
	NetPrice        decimal.Decimal    `json:"net_price"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
	PositionPrice   decimal.Decimal    `json:"position_price"`
	RawTotal        decimal.Decimal    `json:"raw_total"`
	CalculatedTaxes []CalculatedTaxDTO `json:"calculated_taxes" binding:"dive"`
	TaxRules        []TaxRuleDTO       `json:"tax_rules" binding:"dive"`
	TaxStatus       string             `json:"tax_status" binding:"required,tax_status"`
}

// LineItemDTO is a priced entry of an order
type LineItemDTO struct {
	ProductID                        *uuid.UUID         `json:"product_id,omitempty"`
	ProductVersionID                 *uuid.UUID         `json:"product_version_id,omitempty"`
	Payload                          map[string]any     `json:"payload,omitempty"`
	Label                            string             `json:"label" binding:"max=255"`
	Price                            CalculatedPriceDTO `json:"price"`
	Quantity                         int                `json:"quantity"`
	Type                             string             `json:"type" binding:"required,line_item_type"`
	Position                         *int               `json:"position,omitempty"`
	SingleOriginatingOrderLineItemID *uuid.UUID         `json:"single_originating_order_line_item_id,omitempty"`
}

// CalculatableOrderDTO is an order, return order or difference on the wire
type CalculatableOrderDTO struct {
	LineItems []LineItemDTO `json:"line_items" binding:"dive"`
	Price     CartPriceDTO  `json:"price"`
	// ShippingCosts defaults to zero shipping costs when omitted
	ShippingCosts *CalculatedPriceDTO `json:"shipping_costs,omitempty"`
}

// MergeOrdersRequest merges orders into base
type MergeOrdersRequest struct {
	Base   CalculatableOrderDTO   `json:"base"`
	Orders []CalculatableOrderDTO `json:"orders" binding:"required,min=1,max=100,dive"`
}

// NegateOrderRequest negates a single order
type NegateOrderRequest struct {
	Order CalculatableOrderDTO `json:"order"`
}

// CalculatableOrderResponse is the result of a merge or negation
type CalculatableOrderResponse struct {
	Order   CalculatableOrderDTO `json:"order"`
	IsEmpty bool                 `json:"is_empty"`
}

// OrderDifferenceResponse is the change between two versions of an order
type OrderDifferenceResponse struct {
	OrderID      uuid.UUID            `json:"order_id"`
	OldVersionID uuid.UUID            `json:"old_version_id"`
	NewVersionID uuid.UUID            `json:"new_version_id"`
	Difference   CalculatableOrderDTO `json:"difference"`
	// IsEmpty reports that nothing changed between the versions
	IsEmpty bool `json:"is_empty"`
	Cached  bool `json:"cached"`
}

// ToCalculatableOrderDTO converts a domain order
func ToCalculatableOrderDTO(order *ordercalc.CalculatableOrder) CalculatableOrderDTO {
	items := make([]LineItemDTO, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, toLineItemDTO(item))
	}
	shipping := toCalculatedPriceDTO(order.ShippingCosts)
	return CalculatableOrderDTO{
		LineItems:     items,
		Price:         toCartPriceDTO(order.Price),
		ShippingCosts: &shipping,
	}
}

func toLineItemDTO(item ordercalc.CalculatableOrderLineItem) LineItemDTO {
	item = item.Clone()
	return LineItemDTO{
		ProductID:                        item.ProductID,
		ProductVersionID:                 item.ProductVersionID,
		Payload:                          item.Payload,
		Label:                            item.Label,
		Price:                            toCalculatedPriceDTO(item.Price),
		Quantity:                         item.Quantity,
		Type:                             string(item.Type),
		Position:                         item.Position,
		SingleOriginatingOrderLineItemID: item.SingleOriginatingOrderLineItemID,
	}
}

func toCalculatedPriceDTO(price ordercalc.CalculatedPrice) CalculatedPriceDTO {
	out := CalculatedPriceDTO{
		UnitPrice:       price.UnitPrice,
		TotalPrice:      price.TotalPrice,
		Quantity:        price.Quantity,
		CalculatedTaxes: toCalculatedTaxDTOs(price.CalculatedTaxes),
		TaxRules:        toTaxRuleDTOs(price.TaxRules),
	}
	if ref := price.ReferencePrice; ref != nil {
		out.ReferencePrice = &ReferencePriceDTO{
			Price:         ref.Price,
			PurchaseUnit:  ref.PurchaseUnit,
			ReferenceUnit: ref.ReferenceUnit,
			UnitName:      ref.UnitName,
		}
	}
	if list := price.ListPrice; list != nil {
		out.ListPrice = &ListPriceDTO{
			Price:      list.Price,
			Discount:   list.Discount,
			Percentage: list.Percentage,
		}
	}
	return out
}

func toCartPriceDTO(price ordercalc.CartPrice) CartPriceDTO {
	return CartPriceDTO{
		NetPrice:        price.NetPrice,
		TotalPrice:      price.TotalPrice,
		PositionPrice:   price.PositionPrice,
		RawTotal:        price.RawTotal,
		CalculatedTaxes: toCalculatedTaxDTOs(price.CalculatedTaxes),
		TaxRules:        toTaxRuleDTOs(price.TaxRules),
		TaxStatus:       string(price.TaxStatus),
	}
}

func toCalculatedTaxDTOs(taxes ordercalc.CalculatedTaxCollection) []CalculatedTaxDTO {
	out := make([]CalculatedTaxDTO, 0, taxes.Len())
	for _, tax := range taxes.All() {
		out = append(out, CalculatedTaxDTO{Tax: tax.Tax, TaxRate: tax.TaxRate, Price: tax.Price})
	}
	return out
}

func toTaxRuleDTOs(rules ordercalc.TaxRuleCollection) []TaxRuleDTO {
	out := make([]TaxRuleDTO, 0, rules.Len())
	for _, rule := range rules.All() {
		out = append(out, TaxRuleDTO{TaxRate: rule.TaxRate, Percentage: rule.Percentage})
	}
	return out
}

// ToDomainOrder converts an order received on the wire. Unknown tax statuses and line
// item types are rejected with shared.ErrInvalidInput.
func ToDomainOrder(dto CalculatableOrderDTO) (*ordercalc.CalculatableOrder, error) {
	status := ordercalc.TaxStatus(dto.Price.TaxStatus)
	if !status.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown tax status %q", dto.Price.TaxStatus))
	}

	items := make([]ordercalc.CalculatableOrderLineItem, 0, len(dto.LineItems))
	for i, item := range dto.LineItems {
		itemType := ordercalc.LineItemType(item.Type)
		if !itemType.IsValid() {
			return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("line item %d has unknown type %q", i, item.Type))
		}
		items = append(items, ordercalc.CalculatableOrderLineItem{
			ProductID:                        item.ProductID,
			ProductVersionID:                 item.ProductVersionID,
			Payload:                          maps.Clone(item.Payload),
			Label:                            item.Label,
			Price:                            toDomainCalculatedPrice(item.Price),
			Quantity:                         item.Quantity,
			Type:                             itemType,
			Position:                         item.Position,
			SingleOriginatingOrderLineItemID: item.SingleOriginatingOrderLineItemID,
		})
	}

	shipping := ordercalc.ZeroShippingCosts()
	if dto.ShippingCosts != nil {
		shipping = toDomainCalculatedPrice(*dto.ShippingCosts)
	}

	price := ordercalc.NewCartPrice(
		dto.Price.NetPrice,
		dto.Price.TotalPrice,
		dto.Price.PositionPrice,
		toDomainTaxes(dto.Price.CalculatedTaxes),
		toDomainTaxRules(dto.Price.TaxRules),
		status,
		dto.Price.RawTotal,
	)
	return ordercalc.NewCalculatableOrder(items, price, shipping), nil
}

func toDomainCalculatedPrice(dto CalculatedPriceDTO) ordercalc.CalculatedPrice {
	price := ordercalc.NewCalculatedPrice(
		dto.UnitPrice,
		dto.TotalPrice,
		toDomainTaxes(dto.CalculatedTaxes),
		toDomainTaxRules(dto.TaxRules),
		dto.Quantity,
	)
	if ref := dto.ReferencePrice; ref != nil {
		price.ReferencePrice = &ordercalc.ReferencePrice{
			Price:         ref.Price,
			PurchaseUnit:  ref.PurchaseUnit,
			ReferenceUnit: ref.ReferenceUnit,
			UnitName:      ref.UnitName,
		}
	}
	if list := dto.ListPrice; list != nil {
		price.ListPrice = &ordercalc.ListPrice{
			Price:      list.Price,
			Discount:   list.Discount,
			Percentage: list.Percentage,
		}
	}
	return price
}

func toDomainTaxes(dtos []CalculatedTaxDTO) ordercalc.CalculatedTaxCollection {
	taxes := make([]ordercalc.CalculatedTax, 0, len(dtos))
	for _, dto := range dtos {
		taxes = append(taxes, ordercalc.NewCalculatedTax(dto.Tax, dto.TaxRate, dto.Price))
	}
	return ordercalc.NewCalculatedTaxCollection(taxes...)
}

func toDomainTaxRules(dtos []TaxRuleDTO) ordercalc.TaxRuleCollection {
	rules := make([]ordercalc.TaxRule, 0, len(dtos))
	for _, dto := range dtos {
		rules = append(rules, ordercalc.NewTaxRule(dto.TaxRate, dto.Percentage))
	}
	return ordercalc.NewTaxRuleCollection(rules...)
}
