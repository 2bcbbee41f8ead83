package aws

import (
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

var errStopIteration = errors.New("stop iteration")

// parseOnDemandPrice reads terms.OnDemand.<term>.priceDimensions.<dimension>.pricePerUnit.<currency> from a Price List
// product document. The first dimension quoting the currency wins. It returns nil if the document has no such price.
func parseOnDemandPrice(doc []byte, currency string) (*decimal.Decimal, error) {
	var price *decimal.Decimal

	err := jsonparser.ObjectEach(doc, func(_ []byte, term []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.Object {
			return nil
		}

		err := jsonparser.ObjectEach(term, func(_ []byte, dimension []byte, dataType jsonparser.ValueType, _ int) error {
			if dataType != jsonparser.Object {
				return nil
			}

			value, err := jsonparser.GetString(dimension, "pricePerUnit", currency)
			if err != nil {
				return nil
			}

			parsed, err := decimal.NewFromString(value)
			if err != nil {
				return fmt.Errorf("malformed %s price %q: %w", currency, value, err)
			}

			price = &parsed

			return errStopIteration
		}, "priceDimensions")

		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil
		}

		return err
	}, "terms", "OnDemand")

	switch {
	case errors.Is(err, errStopIteration):
		return price, nil
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to parse price list document: %w", err)
	}

	return price, nil
}
