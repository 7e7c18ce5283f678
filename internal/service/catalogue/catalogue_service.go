package catalogue

import (
	"context"
	"sort"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/Domenick1991/chauffeur/internal/pricing"
)

// RouteSummary is a served zone pair as shown on the landing page. Fares is
// empty for routes priced by distance.
type RouteSummary struct {
	From  string                               `json:"from"`
	To    string                               `json:"to"`
	Fares map[domain.ServiceClass]domain.Money `json:"fares,omitempty"`
	Flat  bool                                 `json:"flat"`
}

type ZoneSummary struct {
	Name       string   `json:"name"`
	Localities []string `json:"localities"`
}

type CatalogueUseCase interface {
	Zones(ctx context.Context) ([]ZoneSummary, error)
	Routes(ctx context.Context) ([]RouteSummary, error)
	Route(ctx context.Context, from, to string) (*RouteSummary, error)
}

// CatalogueService lists what the fare table serves.
type CatalogueService struct {
	table *pricing.FareTable
}

func NewCatalogueService(engine *pricing.Engine) *CatalogueService {
	return &CatalogueService{table: engine.Table()}
}

func (s *CatalogueService) Zones(_ context.Context) ([]ZoneSummary, error) {
	out := make([]ZoneSummary, 0, len(s.table.Zones))
	for _, z := range s.table.Zones {
		out = append(out, ZoneSummary{Name: z.Name, Localities: append([]string(nil), z.Localities...)})
	}
	return out, nil
}

func (s *CatalogueService) Routes(_ context.Context) ([]RouteSummary, error) {
	out := make([]RouteSummary, 0, len(s.table.Routes))
	for i := range s.table.Routes {
		out = append(out, s.summary(&s.table.Routes[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out, nil
}

func (s *CatalogueService) Route(_ context.Context, from, to string) (*RouteSummary, error) {
	r, ok := s.table.RouteFor(from, to)
	if !ok {
		return nil, domain.ErrRouteUnserved
	}
	summary := s.summary(r)
	return &summary, nil
}

func (s *CatalogueService) summary(r *pricing.Route) RouteSummary {
	out := RouteSummary{From: r.From, To: r.To, Flat: len(r.Flat) > 0}
	if out.Flat {
		out.Fares = make(map[domain.ServiceClass]domain.Money, len(r.Flat))
		for class, units := range r.Flat {
			out.Fares[class] = domain.NewMoney(units, s.table.Currency)
		}
	}
	return out
}

var _ CatalogueUseCase = (*CatalogueService)(nil)
