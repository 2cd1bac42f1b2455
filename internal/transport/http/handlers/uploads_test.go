package handlers_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type employeeView struct {
	ID               string `json:"id"`
	Phone            string `json:"phone"`
	SocialSecurityNo string `json:"socialSecurityNo"`
	BankDetails      string `json:"bankDetails"`
	PhotoPath        string `json:"photoPath"`
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestAgentUploadsAndMaskedWrites(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login("admin", "admin123")
	env.do(http.MethodPost, "/api/v1/users", admin, map[string]string{"username": "agent", "password": "agent123", "role": "user"}, http.StatusCreated)
	agent := env.login("agent", "agent123")

	employeeInput := map[string]any{
		"matricule": "M010", "firstName": "Luc", "lastName": "Petit", "hireDate": "01/02/2010", "jobTitle": "Archiviste",
		"socialSecurityNo": "1800275123456", "bankDetails": "CCP 0012345 67",
	}
	var created employeeView
	decode(t, env.do(http.MethodPost, "/api/v1/employees", agent, employeeInput, http.StatusCreated), &created)
	assert.Equal(t, "*********3456", created.SocialSecurityNo)
	assert.Equal(t, "**********5 67", created.BankDetails)
	base := "/api/v1/employees/" + created.ID

	photo := []byte("\x89PNG\r\n\x1a\nfake-image")
	var withPhoto employeeView
	decode(t, env.upload(http.MethodPut, base+"/photo", agent, nil, "photo", "face.png", photo, http.StatusOK), &withPhoto)
	assert.Equal(t, "*********3456", withPhoto.SocialSecurityNo)
	assert.Equal(t, "**********5 67", withPhoto.BankDetails)
	assert.NotEmpty(t, withPhoto.PhotoPath)
	body, disposition := env.download(base+"/photo", agent)
	assert.Equal(t, photo, body)
	assert.Contains(t, disposition, "face.png")
	env.upload(http.MethodPut, base+"/photo", agent, nil, "photo", "face.tiff", photo, http.StatusBadRequest)

	// Sending the masked values back must not overwrite the stored ones.
	update := map[string]any{}
	for k, v := range employeeInput {
		update[k] = v
	}
	update["phone"] = "0601020304"
	update["socialSecurityNo"] = withPhoto.SocialSecurityNo
	update["bankDetails"] = withPhoto.BankDetails
	var updated employeeView
	decode(t, env.do(http.MethodPut, base, agent, update, http.StatusOK), &updated)
	assert.Equal(t, "0601020304", updated.Phone)
	assert.Equal(t, "*********3456", updated.SocialSecurityNo)

	delete(update, "socialSecurityNo")
	delete(update, "bankDetails")
	env.do(http.MethodPut, base, agent, update, http.StatusOK)

	var stored employeeView
	decode(t, env.do(http.MethodGet, base, admin, nil, http.StatusOK), &stored)
	assert.Equal(t, "1800275123456", stored.SocialSecurityNo)
	assert.Equal(t, "CCP 0012345 67", stored.BankDetails)

	// Documents are plain form fields plus a file part.
	var doc struct {
		ID       string `json:"id"`
		Category string `json:"category"`
	}
	decode(t, env.upload(http.MethodPost, base+"/documents", agent,
		map[string]string{"name": "Diplôme", "category": "diplomas"}, "file", "diplome.pdf", []byte("%PDF-1.4 diplome"), http.StatusCreated), &doc)
	assert.Equal(t, "diplomas", doc.Category)
	body, _ = env.download(base+"/documents/"+doc.ID+"/file", agent)
	assert.Equal(t, []byte("%PDF-1.4 diplome"), body)
	env.upload(http.MethodPost, base+"/documents", agent, map[string]string{"name": "Sans catégorie"}, "file", "x.pdf", []byte("x"), http.StatusBadRequest)

	// Career acts carry their JSON in the "data" field.
	var act struct {
		ID           string `json:"id"`
		DocumentPath string `json:"documentPath"`
	}
	decode(t, env.upload(http.MethodPost, base+"/career-acts", agent,
		map[string]string{"data": mustJSON(t, map[string]string{"actNumber": "A-2024-12", "nature": "promotion", "actDate": "15/03/2024"})},
		"file", "arrete.pdf", []byte("%PDF-1.4 arrete"), http.StatusCreated), &act)
	assert.NotEmpty(t, act.DocumentPath)
	body, disposition = env.download(base+"/career-acts/"+act.ID+"/document", agent)
	assert.Equal(t, []byte("%PDF-1.4 arrete"), body)
	assert.Contains(t, disposition, "arrete.pdf")
	env.upload(http.MethodPost, base+"/career-acts", agent, map[string]string{"data": "{not json"}, "", "", nil, http.StatusBadRequest)

	var entry struct {
		ID        string `json:"id"`
		FilePath  string `json:"filePath"`
		CreatedBy string `json:"createdBy"`
	}
	decode(t, env.upload(http.MethodPost, "/api/v1/mail", agent,
		map[string]string{"data": mustJSON(t, map[string]any{
			"orderNumber": "2024/002", "direction": "outgoing", "pieces": 2, "mailDate": "03/07/2024",
			"correspondent": "Trésorerie", "subject": "Bordereau",
		})},
		"file", "bordereau.pdf", []byte("%PDF-1.4 bordereau"), http.StatusCreated), &entry)
	assert.Equal(t, "agent", entry.CreatedBy)
	assert.Contains(t, entry.FilePath, "courrier_2024_002_")
	body, _ = env.download("/api/v1/mail/"+entry.ID+"/attachment", agent)
	assert.Equal(t, []byte("%PDF-1.4 bordereau"), body)
}

func TestRestoreFromUpload(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login("admin", "admin123")
	env.do(http.MethodPost, "/api/v1/users", admin, map[string]string{"username": "agent", "password": "agent123", "role": "user"}, http.StatusCreated)
	agent := env.login("agent", "agent123")

	var backup struct {
		FileName string `json:"fileName"`
	}
	decode(t, env.do(http.MethodPost, "/api/v1/system/backup", admin, nil, http.StatusCreated), &backup)
	content, err := os.ReadFile(filepath.Join(env.app.Config.BackupDir, backup.FileName))
	require.NoError(t, err)

	env.upload(http.MethodPost, "/api/v1/system/restore", agent, nil, "file", backup.FileName, content, http.StatusForbidden)
	env.upload(http.MethodPost, "/api/v1/system/restore", admin, nil, "file", "notes.db", []byte("not a database at all"), http.StatusBadRequest)
	env.upload(http.MethodPost, "/api/v1/system/restore", admin, map[string]string{"name": "x"}, "", "", nil, http.StatusBadRequest)

	var result struct {
		Source          string `json:"source"`
		RestartRequired bool   `json:"restartRequired"`
	}
	decode(t, env.upload(http.MethodPost, "/api/v1/system/restore", admin, nil, "file", backup.FileName, content, http.StatusOK), &result)
	assert.Equal(t, backup.FileName, result.Source)
	assert.True(t, result.RestartRequired)
}
