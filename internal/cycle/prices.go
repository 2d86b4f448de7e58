package cycle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

type priceKey struct {
	tier    int
	cadence model.SessionCadence
}

// PriceTable месячные цены тарифов по каденсу, в минимальных единицах валюты
type PriceTable struct {
	prices map[priceKey]int64
}

// DefaultPrices тарифы по умолчанию
func DefaultPrices() PriceTable {
	t, _ := ParsePriceTable("1:1h=4000,1:30m=4400,1:40m=4200,2:1h=6000,2:30m=6600,2:40m=6300")
	return t
}

// ParsePriceTable разбирает строку вида "1:1h=4000,2:30m=6600"
func ParsePriceTable(s string) (PriceTable, error) {
	t := PriceTable{prices: make(map[priceKey]int64)}

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return PriceTable{}, fmt.Errorf("price entry %q: missing '='", item)
		}
		tierStr, cadenceStr, ok := strings.Cut(key, ":")
		if !ok {
			return PriceTable{}, fmt.Errorf("price entry %q: missing ':'", item)
		}

		tier, err := strconv.Atoi(tierStr)
		if err != nil || tier <= 0 {
			return PriceTable{}, fmt.Errorf("price entry %q: invalid tier", item)
		}
		cadence := model.SessionCadence(cadenceStr)
		if _, ok := cadence.WeeklySessions(); !ok {
			return PriceTable{}, fmt.Errorf("price entry %q: %w", item, model.ErrInvalidCadence)
		}
		price, err := strconv.ParseInt(value, 10, 64)
		if err != nil || price < 0 {
			return PriceTable{}, fmt.Errorf("price entry %q: invalid price", item)
		}

		t.prices[priceKey{tier: tier, cadence: cadence}] = price
	}

	return t, nil
}

// MonthlyPrice цена месяца для тарифа и каденса
func (t PriceTable) MonthlyPrice(tier int, cadence model.SessionCadence) (int64, error) {
	price, ok := t.prices[priceKey{tier: tier, cadence: cadence}]
	if !ok {
		return 0, fmt.Errorf("%w: tier %d, cadence %q", model.ErrUnknownTier, tier, cadence)
	}
	return price, nil
}
