package engine

import "stockagent_go/internal/domain"

// Book holds one instrument's resting session orders. Both queues are
// cleared at session start; nothing carries over.
//
// Matching is deliberately a naive exact-price crossing: an incoming order
// fills against the first resting entries whose price exactly equals its own,
// in list order. There is no price or time priority; the shuffled agent
// visitation order is the tie-break. This is a modeled property of the
// simulated market, not an optimization target.
type Book struct {
	Buys  []*domain.TradeIntent
	Sells []*domain.TradeIntent
}

// Clear empties both queues at session start.
func (b *Book) Clear() {
	b.Buys, b.Sells = nil, nil
}

// View returns a copy of the resting orders for decision context.
func (b *Book) View() domain.DealsView {
	v := domain.DealsView{
		Buys:  make([]domain.TradeIntent, 0, len(b.Buys)),
		Sells: make([]domain.TradeIntent, 0, len(b.Sells)),
	}
	for _, o := range b.Buys {
		v.Buys = append(v.Buys, *o)
	}
	for _, o := range b.Sells {
		v.Sells = append(v.Sells, *o)
	}
	return v
}

// Submit crosses one incoming intent against the opposite queue. Every fill
// is handed to exec for settlement and recording before matching continues;
// any unexhausted remainder rests on the incoming side's queue.
func (b *Book) Submit(it domain.TradeIntent, exec func(domain.Trade)) {
	rest, same := &b.Sells, &b.Buys
	if it.Side == domain.SideSell {
		rest, same = &b.Buys, &b.Sells
	}

	i := 0
	for it.Amount > 0 && i < len(*rest) {
		r := (*rest)[i]
		if !r.Price.Equal(it.Price) {
			i++
			continue
		}

		qty := it.Amount
		if r.Amount < qty {
			qty = r.Amount
		}

		tr := domain.Trade{
			Day:     it.Day,
			Session: it.Session,
			Stock:   it.Stock,
			Amount:  qty,
			Price:   it.Price,
		}
		if it.Side == domain.SideBuy {
			tr.Buyer, tr.Seller = it.Agent, r.Agent
		} else {
			tr.Buyer, tr.Seller = r.Agent, it.Agent
		}
		exec(tr)

		it.Amount -= qty
		r.Amount -= qty
		if r.Amount <= 0 {
			*rest = append((*rest)[:i], (*rest)[i+1:]...)
			continue
		}
		i++
	}

	if it.Amount > 0 {
		resting := it
		*same = append(*same, &resting)
	}
}
