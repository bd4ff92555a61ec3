package adoptions

import "context"

// ApplicationIDs implementa users.ApplicationSource: ids autoritativos
// de solicitudes de un usuario, leídos de la colección.
func (s *Service) ApplicationIDs(ctx context.Context, applicantID string) ([]string, error) {
	items, err := s.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	return ids, nil
}
