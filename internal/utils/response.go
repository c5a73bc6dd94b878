package utils

import (
	"encoding/json"
	"net/http"

	"github.com/dishant0406/lazyweb-backend/internal/models"
)

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, models.Resp{OK: false, Info: msg})
}
