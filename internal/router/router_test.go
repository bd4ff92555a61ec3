package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-adoption-market/internal/router"
)

var applyPayload = map[string]any{
	"reason":           "siempre quise un perro",
	"experience":       "tuve dos",
	"living_condition": "casa con patio",
}

func TestHTTP_EndToEnd_AdoptionFlow(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	ownerID := "owner-1"
	anaID := "ana"
	brunoID := "bruno"

	// 1) Owner publica una mascota
	petID := publishPet(t, ts.URL, ownerID, map[string]any{
		"name":  "Luna",
		"type":  "dog",
		"breed": "mixed",
		"age":   3,
	})

	// 2) Sin auth no se puede publicar
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets", "", false, map[string]any{
			"name": "Ghost", "type": "cat",
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 publish without auth, got %d", st)
		}
	}

	// 3) Ana aplica
	anaAppID := apply(t, ts.URL, anaID, petID)

	// 4) El contador se ve en el GET público de la mascota
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, "", false, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status     string `json:"status"`
			Applicants int    `json:"applicants"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Applicants != 1 {
			t.Fatalf("expected applicants 1, got %d body=%s", resp.Applicants, string(body))
		}
	}

	// 5) El dueño no puede auto-aplicar
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/applications", ownerID, false, applyPayload)
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 self-apply, got %d", st)
		}
	}

	// 6) Ana no puede duplicar su solicitud active
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/applications", anaID, false, applyPayload)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate application, got %d", st)
		}
	}

	// 7) Con una solicitud active, el owner no puede retirar la publicación
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/pets/"+petID, ownerID, false, nil)
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 withdraw with active application, got %d", st)
		}
	}

	// 8) Bruno también aplica; el owner ve la bandeja, ana no
	brunoAppID := apply(t, ts.URL, brunoID, petID)
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/applications", ownerID, false, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list applications, got %d body=%s", st, string(body))
		}
		var items []json.RawMessage
		_ = json.Unmarshal(body, &items)
		if len(items) != 2 {
			t.Fatalf("expected 2 applications, got %d", len(items))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID+"/applications", anaID, false, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 list applications by applicant, got %d", st)
		}
	}

	// 9) Solo el owner puede aprobar
	{
		st, _ := doReq(t, ts.URL, "POST", "/applications/"+brunoAppID+"/approve", anaID, false, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 approve by non-owner, got %d", st)
		}
	}

	// 10) Owner aprueba a bruno: efecto triple
	{
		st, body := doReq(t, ts.URL, "POST", "/applications/"+brunoAppID+"/approve", ownerID, false, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "approved" {
			t.Fatalf("expected approved, got %s", resp.Status)
		}
	}

	// 11) La solicitud de ana quedó cancelada en la misma operación
	{
		st, body := doReq(t, ts.URL, "GET", "/applications/"+anaAppID, anaID, false, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get application, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "cancelled" {
			t.Fatalf("expected cancelled sibling, got %s", resp.Status)
		}
	}

	// 12) La mascota está adopted y el reconciler ya bajó el contador a 0
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, "", false, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status     string `json:"status"`
			Applicants int    `json:"applicants"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "adopted" {
			t.Fatalf("expected adopted, got %s", resp.Status)
		}
		if resp.Applicants != 0 {
			t.Fatalf("expected applicants reconciled to 0, got %d", resp.Applicants)
		}
	}

	// 13) Nadie más puede aplicar sobre una adoptada
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/applications", "carla", false, applyPayload)
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 apply on adopted pet, got %d", st)
		}
	}

	// 14) Audit trail: admin sí, no-admin no
	{
		st, _ := doReq(t, ts.URL, "GET", "/applications/"+brunoAppID+"/history", ownerID, false, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 history for non-admin, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/applications/"+brunoAppID+"/history", "admin-1", true, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 history for admin, got %d body=%s", st, string(body))
		}
		var entries []struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		_ = json.Unmarshal(body, &entries)
		// creación + aprobación
		if len(entries) != 2 {
			t.Fatalf("expected 2 history entries, got %d body=%s", len(entries), string(body))
		}
		if entries[0].To != "active" || entries[1].To != "approved" {
			t.Fatalf("unexpected history order: %#v", entries)
		}
	}

	// 15) /me refleja las back-refs de bruno
	{
		st, body := doReq(t, ts.URL, "GET", "/me", brunoID, false, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get me, got %d body=%s", st, string(body))
		}
		var resp struct {
			Applications []string `json:"applications"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Applications) != 1 || resp.Applications[0] != brunoAppID {
			t.Fatalf("expected bruno back-ref %s, got %#v", brunoAppID, resp.Applications)
		}
	}
}

func TestHTTP_WithdrawPublication_AfterCancel(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	petID := publishPet(t, ts.URL, "owner-1", map[string]any{"name": "Milo", "type": "cat"})
	appID := apply(t, ts.URL, "ana", petID)

	// solo el solicitante puede cancelar su solicitud
	{
		st, _ := doReq(t, ts.URL, "POST", "/applications/"+appID+"/cancel", "owner-1", false, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 cancel by pet owner, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/applications/"+appID+"/cancel", "ana", false, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 cancel, got %d body=%s", st, string(body))
		}
	}

	// sin actives, el retiro pasa y la mascota desaparece
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/pets/"+petID, "owner-1", false, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 withdraw, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID, "", false, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after withdraw, got %d", st)
		}
	}
	// la cascada también se llevó la solicitud terminal
	{
		st, _ := doReq(t, ts.URL, "GET", "/applications/"+appID, "ana", false, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 application after cascade, got %d", st)
		}
	}
}

func TestHTTP_AdminDelete_RequiresAdmin(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	petID := publishPet(t, ts.URL, "owner-1", map[string]any{"name": "Rex", "type": "dog"})
	appID := apply(t, ts.URL, "ana", petID)

	{
		st, _ := doReq(t, ts.URL, "DELETE", "/applications/"+appID, "ana", false, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 delete by non-admin, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/applications/"+appID, "admin-1", true, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 admin delete, got %d", st)
		}
	}

	// el contador volvió a cero porque la solicitud estaba active
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, "", false, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d", st)
		}
		var resp struct {
			Applicants int `json:"applicants"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Applicants != 0 {
			t.Fatalf("expected applicants 0 after admin delete, got %d", resp.Applicants)
		}
	}
}

func TestHTTP_Validation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	// tipo inválido => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets", "owner-1", false, map[string]any{
			"name": "Luna", "type": "dinosaur",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid type, got %d", st)
		}
	}

	// solicitud sin campos requeridos => 400
	petID := publishPet(t, ts.URL, "owner-1", map[string]any{"name": "Luna", "type": "dog"})
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/applications", "ana", false, map[string]any{
			"reason": "solo reason",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for incomplete application, got %d", st)
		}
	}
}

// -------------------------
// Helpers
// -------------------------

func publishPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, false, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 publish pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("publish pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func apply(t *testing.T, baseURL, userID, petID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets/"+petID+"/applications", userID, false, applyPayload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 apply, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("apply: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, admin bool, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}
	if admin {
		req.Header.Set("X-Debug-Admin", "1")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
