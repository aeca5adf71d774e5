// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldError(t *testing.T) {
	fe := FieldError{
		Field: "agents[0].budget",
		Err:   fmt.Errorf("%w: value is negative", ErrInvalidDocument),
	}

	assert.Equal(t, "agents[0].budget: invalid problem document: value is negative", fe.Error())
	assert.ErrorIs(t, fe, ErrInvalidDocument)
	assert.False(t, errors.Is(fe, ErrUnsupportedVersion))
}

func TestFieldError_MarshalJSON(t *testing.T) {
	fe := FieldError{
		Field: "version",
		Err:   fmt.Errorf("%w: 2", ErrUnsupportedVersion),
	}

	data, err := json.Marshal(fe)
	require.NoError(t, err)

	var decoded struct {
		Field string `json:"field"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "version", decoded.Field)
	assert.Equal(t, "unsupported document version: 2", decoded.Error)
}
