package mirror

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"retail-ledger/internal/domain"
)

// money is stored as Decimal128. Older documents written with plain numbers
// or strings are still accepted on read.
type money struct {
	decimal.Decimal
}

func (m money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("failed to convert %s to decimal128: %w", m.Decimal, err)
	}
	return bson.MarshalValue(d128)
}

func (m *money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Decimal128:
		d, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return err
		}
		m.Decimal = d
	case bsontype.Double:
		m.Decimal = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		m.Decimal = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		m.Decimal = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		d, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return err
		}
		m.Decimal = d
	case bsontype.Null, bsontype.Undefined:
		m.Decimal = decimal.Zero
	default:
		return fmt.Errorf("unsupported bson type %s for money", t)
	}
	return nil
}

type productDocument struct {
	ID              string `bson:"_id,omitempty"`
	Name            string `bson:"name"`
	Unit            string `bson:"unit"`
	CurrentQuantity int    `bson:"currentQuantity"`
	MinQuantity     int    `bson:"minQuantity"`
	Price           money  `bson:"price"`
	Active          bool   `bson:"active"`
	Barcode         string `bson:"barcode,omitempty"`
}

func newProductDocument(p domain.Product) productDocument {
	return productDocument{
		ID:              p.ID,
		Name:            p.Name,
		Unit:            p.Unit,
		CurrentQuantity: p.CurrentQuantity,
		MinQuantity:     p.MinQuantity,
		Price:           money{p.Price},
		Active:          p.Active,
		Barcode:         p.Barcode,
	}
}

func (d productDocument) toDomain() domain.Product {
	return domain.Product{
		ID:              d.ID,
		Name:            d.Name,
		Unit:            d.Unit,
		CurrentQuantity: d.CurrentQuantity,
		MinQuantity:     d.MinQuantity,
		Price:           d.Price.Decimal,
		Active:          d.Active,
		Barcode:         d.Barcode,
	}
}

type saleItemDocument struct {
	ProductID string `bson:"productId"`
	Quantity  int    `bson:"quantity"`
	UnitPrice money  `bson:"unitPrice"`
}

type saleDocument struct {
	ID        string             `bson:"_id,omitempty"`
	Timestamp int64              `bson:"timestamp"`
	Items     []saleItemDocument `bson:"items"`
	Total     money              `bson:"total"`
}

func newSaleDocument(s domain.Sale) saleDocument {
	items := make([]saleItemDocument, len(s.Items))
	for i, item := range s.Items {
		items[i] = saleItemDocument{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: money{item.UnitPrice},
		}
	}
	return saleDocument{
		ID:        s.ID,
		Timestamp: s.Timestamp,
		Items:     items,
		Total:     money{s.Total},
	}
}

func (d saleDocument) toDomain() domain.Sale {
	items := make([]domain.SaleItem, len(d.Items))
	for i, item := range d.Items {
		items[i] = domain.SaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Decimal,
		}
	}
	return domain.Sale{
		ID:        d.ID,
		Timestamp: d.Timestamp,
		Items:     items,
		Total:     d.Total.Decimal,
	}
}
