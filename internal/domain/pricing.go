package domain

// Bonding curve del mercado.
//
// Fórmulas (aritmética entera, floor en cada división):
//
//	total_reserve = token_amount × token_price / (2 × token_amount)
//	price_a       = total_reserve × (supply_a + supply_b) / supply_a
//	price_b       = total_reserve × (supply_a + supply_b) / supply_b
//
// total_reserve se fija al crear el mercado y no se vuelve a derivar.
// Cada trade recalcula los precios con las supplies actuales contra esa constante.

// InitializeMarket fija supplies, precios y reserve iniciales simétricos.
// Devuelve el reserve calculado. El mercado no se modifica si hay error.
func (m *Market) InitializeMarket(tokenAmount, tokenPrice uint64) (uint64, error) {
	total, err := checkedMul(2, tokenAmount)
	if err != nil {
		return 0, err
	}
	product, err := checkedMul(tokenAmount, tokenPrice)
	if err != nil {
		return 0, err
	}
	reserve, err := checkedDiv(product, total)
	if err != nil {
		return 0, err
	}

	m.TokenAAmount = tokenAmount
	m.TokenBAmount = tokenAmount
	m.TokenPriceA = tokenPrice
	m.TokenPriceB = tokenPrice
	m.TotalReserve = reserve
	return reserve, nil
}

// UpdatePriceOnTrade aplica un trade de sellAmount unidades sobre el lado dado:
// reduce la supply del lado vendido, desplaza el contador de precio del lado
// contrario y recalcula ambos precios con el reserve original.
func (m *Market) UpdatePriceOnTrade(sellAmount uint64, side Side) error {
	supplyA, supplyB := m.TokenAAmount, m.TokenBAmount
	priceA, priceB := m.TokenPriceA, m.TokenPriceB

	var err error
	if side == SideYes {
		if supplyA, err = checkedSub(supplyA, sellAmount); err != nil {
			return err
		}
		if priceB, err = checkedAdd(priceB, sellAmount); err != nil {
			return err
		}
	} else {
		if supplyB, err = checkedSub(supplyB, sellAmount); err != nil {
			return err
		}
		if priceA, err = checkedAdd(priceA, sellAmount); err != nil {
			return err
		}
	}

	if priceA, priceB, err = curvePrices(m.TotalReserve, supplyA, supplyB); err != nil {
		return err
	}

	m.TokenAAmount, m.TokenBAmount = supplyA, supplyB
	m.TokenPriceA, m.TokenPriceB = priceA, priceB
	return nil
}

// AddLiquidity suma amount a ambas supplies y recalcula precios.
// El reserve no cambia.
func (m *Market) AddLiquidity(amount uint64) error {
	supplyA, err := checkedAdd(m.TokenAAmount, amount)
	if err != nil {
		return err
	}
	supplyB, err := checkedAdd(m.TokenBAmount, amount)
	if err != nil {
		return err
	}
	priceA, priceB, err := curvePrices(m.TotalReserve, supplyA, supplyB)
	if err != nil {
		return err
	}

	m.TokenAAmount, m.TokenBAmount = supplyA, supplyB
	m.TokenPriceA, m.TokenPriceB = priceA, priceB
	return nil
}

// CurvePrices expone la fórmula de precios para los reportes.
func CurvePrices(reserve, supplyA, supplyB uint64) (priceA, priceB uint64, err error) {
	return curvePrices(reserve, supplyA, supplyB)
}

func curvePrices(reserve, supplyA, supplyB uint64) (uint64, uint64, error) {
	sum, err := checkedAdd(supplyA, supplyB)
	if err != nil {
		return 0, 0, err
	}
	k, err := checkedMul(reserve, sum)
	if err != nil {
		return 0, 0, err
	}
	priceA, err := checkedDiv(k, supplyA)
	if err != nil {
		return 0, 0, err
	}
	priceB, err := checkedDiv(k, supplyB)
	if err != nil {
		return 0, 0, err
	}
	return priceA, priceB, nil
}
