package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCurrencyRepository stores currency definitions in the currencies
// collection.
type MongoCurrencyRepository struct {
	db *mongo.Database
}

// newMongoCurrencyRepository creates a new repository for currency documents.
func newMongoCurrencyRepository(db *mongo.Database) *MongoCurrencyRepository {
	return &MongoCurrencyRepository{db: db}
}

var _ portsrepo.CurrencyRepositoryFacade = (*MongoCurrencyRepository)(nil)

func toCurrencyDoc(d domain.Currency) (currencyDoc, error) {
	starting, err := toDecimal128(d.StartingBalance)
	if err != nil {
		return currencyDoc{}, err
	}
	max, err := toDecimal128(d.MaxBalance)
	if err != nil {
		return currencyDoc{}, err
	}
	minTransfer, err := toDecimal128(d.MinTransfer)
	if err != nil {
		return currencyDoc{}, err
	}
	maxTransfer, err := toDecimal128(d.MaxTransfer)
	if err != nil {
		return currencyDoc{}, err
	}
	return currencyDoc{
		CurrencyID:      d.ID,
		Name:            d.Name,
		NameSingular:    d.NameSingular,
		Symbol:          d.Symbol,
		IsDecimal:       d.IsDecimal,
		StartingBalance: starting,
		MaxBalance:      max,
		MinTransfer:     minTransfer,
		MaxTransfer:     maxTransfer,
		Enabled:         d.Enabled,
		CreatedAt:       d.CreatedAt,
		CreatedBy:       d.CreatedBy,
		LastUpdatedAt:   d.LastUpdatedAt,
		LastUpdatedBy:   d.LastUpdatedBy,
	}, nil
}

func toDomainCurrency(doc currencyDoc) (domain.Currency, error) {
	starting, err := fromDecimal128(doc.StartingBalance)
	if err != nil {
		return domain.Currency{}, err
	}
	max, err := fromDecimal128(doc.MaxBalance)
	if err != nil {
		return domain.Currency{}, err
	}
	minTransfer, err := fromDecimal128(doc.MinTransfer)
	if err != nil {
		return domain.Currency{}, err
	}
	maxTransfer, err := fromDecimal128(doc.MaxTransfer)
	if err != nil {
		return domain.Currency{}, err
	}
	return domain.Currency{
		ID:              doc.CurrencyID,
		Name:            doc.Name,
		NameSingular:    doc.NameSingular,
		Symbol:          doc.Symbol,
		IsDecimal:       doc.IsDecimal,
		StartingBalance: starting,
		MaxBalance:      max,
		MinTransfer:     minTransfer,
		MaxTransfer:     maxTransfer,
		Enabled:         doc.Enabled,
		AuditFields: domain.AuditFields{
			CreatedAt:     doc.CreatedAt,
			CreatedBy:     doc.CreatedBy,
			LastUpdatedAt: doc.LastUpdatedAt,
			LastUpdatedBy: doc.LastUpdatedBy,
		},
	}, nil
}

// SaveCurrency inserts or updates a currency definition. Audit timestamps are
// owned by the service layer and persisted as given.
func (r *MongoCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	doc, err := toCurrencyDoc(currency)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(currenciesCollection).
		ReplaceOne(ctx, bson.M{"currency_id": doc.CurrencyID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return mapStoreError(fmt.Sprintf("save currency %s", doc.CurrencyID), err)
	}
	return nil
}

// FindCurrencyByID retrieves a currency by its identifier.
func (r *MongoCurrencyRepository) FindCurrencyByID(ctx context.Context, currencyID string) (*domain.Currency, error) {
	var doc currencyDoc
	err := r.db.Collection(currenciesCollection).
		FindOne(ctx, bson.M{"currency_id": currencyID}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, mapStoreError(fmt.Sprintf("find currency %s", currencyID), err)
	}
	d, err := toDomainCurrency(doc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListCurrencies retrieves all currencies ordered by identifier.
func (r *MongoCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	opts := options.Find().SetSort(bson.D{{Key: "currency_id", Value: 1}})
	cursor, err := r.db.Collection(currenciesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapStoreError("list currencies", err)
	}
	defer cursor.Close(ctx)

	var docs []currencyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapStoreError("list currencies", err)
	}

	currencies := make([]domain.Currency, 0, len(docs))
	for _, doc := range docs {
		d, err := toDomainCurrency(doc)
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, d)
	}
	return currencies, nil
}

// DeleteCurrency removes a currency definition. Balances are untouched.
func (r *MongoCurrencyRepository) DeleteCurrency(ctx context.Context, currencyID string) error {
	res, err := r.db.Collection(currenciesCollection).
		DeleteOne(ctx, bson.M{"currency_id": currencyID})
	if err != nil {
		return mapStoreError(fmt.Sprintf("delete currency %s", currencyID), err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
