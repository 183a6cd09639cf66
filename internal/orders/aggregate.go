package orders

import "github.com/joao-fontenele/storefront-orders/internal/domain"

// Tie-break weights for DeriveAggregateStatus. Statuses not listed weigh 0.
var aggregatePriority = map[string]int{
	domain.StatusNameDelivered:      4,
	domain.StatusNameOutForDelivery: 3,
	domain.StatusNameShipped:        2,
	"processing":                    1,
}

// GroupByOrder folds joined order rows into orders with nested line items.
// Orders keep the order they first appear in; headers come from the first row
// of each order.
func GroupByOrder(rows []domain.OrderRow) []domain.OrderView {
	index := make(map[int64]int)
	var views []domain.OrderView

	for _, row := range rows {
		i, ok := index[row.OrderID]
		if !ok {
			i = len(views)
			index[row.OrderID] = i
			views = append(views, domain.OrderView{
				ID:          row.OrderID,
				UserID:      row.UserID,
				Amount:      row.Amount,
				DeliveryFee: row.DeliveryFee,
				PaymentType: row.PaymentType,
				OrderedAt:   row.OrderedAt,
				Address:     row.Address,
				Items:       []domain.LineItem{},
			})
		}
		views[i].Items = append(views[i].Items, domain.LineItem{
			ProductID:       row.ProductID,
			OrderItemID:     row.OrderItemID,
			Name:            row.Name,
			Category:        row.Category,
			StatusID:        row.StatusID,
			StatusName:      row.StatusName,
			StatusColor:     row.StatusColor,
			ComplaintStatus: row.ComplaintStatus,
			Price:           row.Price,
			Image:           row.Image,
		})
	}

	if views == nil {
		return []domain.OrderView{}
	}
	return views
}

// DeriveAggregateStatus picks the status shown for an order whose items may
// disagree: the most frequent status wins, ties go to the higher priority, and
// remaining ties to the status seen first. Display only.
func DeriveAggregateStatus(items []domain.LineItem, catalog *domain.Catalog) domain.AggregateStatus {
	counts := make(map[string]int)
	colors := make(map[string]string)
	var order []string

	for _, item := range items {
		name := domain.NormalizeStatusName(item.StatusName)
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
			colors[name] = item.StatusColor
		}
		counts[name]++
	}

	if len(order) == 0 {
		return domain.AggregateStatus{}
	}

	best := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[best] ||
			(counts[name] == counts[best] && aggregatePriority[name] > aggregatePriority[best]) {
			best = name
		}
	}

	color := colors[best]
	if catalog != nil {
		if s, ok := catalog.ByName(best); ok {
			color = s.Color
		}
	}
	return domain.AggregateStatus{Name: best, Color: color}
}

// withAggregateStatus fills Status on every view.
func withAggregateStatus(views []domain.OrderView, catalog *domain.Catalog) []domain.OrderView {
	for i := range views {
		views[i].Status = DeriveAggregateStatus(views[i].Items, catalog)
	}
	return views
}
