package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// WriteJSON escreve data como JSON com o status informado. data nil gera corpo vazio.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError traduz err no corpo padronizado {code, category, message}.
// Erros 5xx são registrados como Error; os demais em Debug.
func WriteError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category),
			map[string]interface{}{"path": r.URL.Path, "method": r.Method})
	}

	WriteJSON(w, status, map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// Respond escreve o sucesso (data, successStatus) ou o erro padronizado.
func Respond(w http.ResponseWriter, r *http.Request, log logger.Logger, data interface{}, err error, successStatus int) {
	if err != nil {
		WriteError(w, r, log, err)
		return
	}
	if encErr := WriteJSON(w, successStatus, data); encErr != nil {
		log.Error("Falha ao codificar JSON de resposta", encErr)
	}
}

// DecodeJSON lê o corpo da requisição em dst, rejeitando campos desconhecidos.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return decode(r, dst, false)
}

// DecodeOptionalJSON é como DecodeJSON, mas corpo vazio (inclusive chunked) deixa dst intacto.
func DecodeOptionalJSON(r *http.Request, dst interface{}) error {
	return decode(r, dst, true)
}

func decode(r *http.Request, dst interface{}, optional bool) error {
	if r.Body == nil {
		if optional {
			return nil
		}
		return apperror.NewValidationError("Payload inválido. Corpo da requisição ausente.")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return apperror.NewValidationError(fmt.Sprintf("Payload inválido. Verifique o formato JSON (%v).", err))
	}
	return nil
}
