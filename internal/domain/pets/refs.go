package pets

import "context"

// PublicationIDs implementa users.PublicationSource: los ids
// autoritativos de publicaciones de un dueño, leídos de la colección
// (no del array cacheado del usuario). Vive como método aparte para
// evitar ciclos de imports entre módulos.
func (s *Service) PublicationIDs(ctx context.Context, ownerID string) ([]string, error) {
	items, err := s.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids, nil
}
