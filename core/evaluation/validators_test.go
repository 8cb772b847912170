package evaluation_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/kelna-terese/EvalX/tests"
)

func TestInitValidators_RangeMessages(t *testing.T) {
	validate, translator := testutil.NewValidator()

	type form struct {
		Title string  `json:"title" validate:"max=5"`
		Items []int   `json:"items" validate:"min=2"`
		Score float64 `json:"score" validate:"max=10"`
		Mark  float64 `json:"mark" validate:"min=0"`
	}
	err := validate.Struct(form{Title: "Smart Irrigation", Items: []int{1}, Score: 10.5, Mark: -1})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	got := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		got[fe.Field()] = fe.Translate(translator)
	}
	assert.Equal(t, map[string]string{
		"title": "title must be a maximum of 5 characters in length",
		"items": "items must contain at least 2 items",
		"score": "score must be at most 10",
		"mark":  "mark must be at least 0",
	}, got)
}
