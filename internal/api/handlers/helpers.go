package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	apiContext "knowyourclient/internal/api/context"
	"knowyourclient/internal/engine/clientinfo"
	"knowyourclient/internal/pkg/validator"
)

const maxBodyBytes = 64 << 10

func param(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt64 returns def when the parameter is absent and an error when it is
// present but malformed.
func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// normalizeInput validates a posted Input and canonicalizes its language tags.
func normalizeInput(in *clientinfo.Input) error {
	if err := validator.ValidateUserAgent(in.UserAgent); err != nil {
		return err
	}
	if err := validator.ValidateScreen(in.ScreenWidth, in.ScreenHeight, in.ColorDepth, in.PixelRatio); err != nil {
		return err
	}

	var err error
	if in.Language, err = validator.NormalizeLanguage(in.Language); err != nil {
		return err
	}
	if in.UserLanguage, err = validator.NormalizeLanguage(in.UserLanguage); err != nil {
		return err
	}
	return nil
}
