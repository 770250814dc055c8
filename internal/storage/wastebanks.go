package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/binwise/internal/model"
	"github.com/google/uuid"
)

// SaveWasteBanks upserts banks by name. Banks without an id get one.
func (s *SQLiteStorage) SaveWasteBanks(ctx context.Context, banks []model.WasteBank) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range banks {
		if err := validateWasteBank(&banks[i]); err != nil {
			return err
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO waste_banks (id, name, address, latitude, longitude, phone, whatsapp, email,
				opens_at, closes_at, closed_days, materials, purchase_prices, rating,
				total_transactions, verified)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				address = excluded.address,
				latitude = excluded.latitude,
				longitude = excluded.longitude,
				phone = excluded.phone,
				whatsapp = excluded.whatsapp,
				email = excluded.email,
				opens_at = excluded.opens_at,
				closes_at = excluded.closes_at,
				closed_days = excluded.closed_days,
				materials = excluded.materials,
				purchase_prices = excluded.purchase_prices,
				rating = excluded.rating,
				total_transactions = excluded.total_transactions,
				verified = excluded.verified
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range banks {
			bank := &banks[i]
			if bank.ID == "" {
				bank.ID = uuid.NewString()
			}

			closedDays, err := json.Marshal(nonNilStrings(bank.Hours.ClosedDays))
			if err != nil {
				return fmt.Errorf("failed to encode closed days: %w", err)
			}
			materials, err := json.Marshal(nonNilStrings(bank.Materials))
			if err != nil {
				return fmt.Errorf("failed to encode materials: %w", err)
			}
			prices := bank.PurchasePrices
			if prices == nil {
				prices = map[string]float64{}
			}
			pricesJSON, err := json.Marshal(prices)
			if err != nil {
				return fmt.Errorf("failed to encode prices: %w", err)
			}

			if _, err := stmt.ExecContext(ctx,
				bank.ID, bank.Name, bank.Address, bank.Coordinates.Latitude, bank.Coordinates.Longitude,
				bank.Contact.Phone, bank.Contact.WhatsApp, bank.Contact.Email,
				bank.Hours.Opens, bank.Hours.Closes, string(closedDays), string(materials), string(pricesJSON),
				bank.Rating, bank.TotalTransactions, bank.Verified,
			); err != nil {
				return fmt.Errorf("failed to save waste bank %s: %w", bank.Name, err)
			}
		}
		return nil
	})
}

// GetWasteBanks returns every bank in the directory ordered by name.
func (s *SQLiteStorage) GetWasteBanks(ctx context.Context) ([]model.WasteBank, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, latitude, longitude, phone, whatsapp, email,
			opens_at, closes_at, closed_days, materials, purchase_prices, rating,
			total_transactions, verified
		FROM waste_banks
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query waste banks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var banks []model.WasteBank
	for rows.Next() {
		var b model.WasteBank
		var closedDays, materials, prices string
		if err := rows.Scan(
			&b.ID,
			&b.Name,
			&b.Address,
			&b.Coordinates.Latitude,
			&b.Coordinates.Longitude,
			&b.Contact.Phone,
			&b.Contact.WhatsApp,
			&b.Contact.Email,
			&b.Hours.Opens,
			&b.Hours.Closes,
			&closedDays,
			&materials,
			&prices,
			&b.Rating,
			&b.TotalTransactions,
			&b.Verified,
		); err != nil {
			return nil, fmt.Errorf("failed to scan waste bank: %w", err)
		}

		if err := json.Unmarshal([]byte(closedDays), &b.Hours.ClosedDays); err != nil {
			return nil, fmt.Errorf("failed to decode closed days for %s: %w", b.Name, err)
		}
		if err := json.Unmarshal([]byte(materials), &b.Materials); err != nil {
			return nil, fmt.Errorf("failed to decode materials for %s: %w", b.Name, err)
		}
		if err := json.Unmarshal([]byte(prices), &b.PurchasePrices); err != nil {
			return nil, fmt.Errorf("failed to decode prices for %s: %w", b.Name, err)
		}

		banks = append(banks, b)
	}

	return banks, rows.Err()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
