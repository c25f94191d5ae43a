package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventtickets/internal/domain"
)

func TestTemplateRenderer_RegistrationConfirmed(t *testing.T) {
	r := NewTemplateRenderer()
	subject, html, text, err := r.Render("registration_confirmed", &domain.RegistrationConfirmedEmailData{
		Name:             "Ada",
		EventTitle:       "GopherCon 2026",
		ConfirmationCode: "ABCD2345",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "GopherCon 2026")
	assert.Contains(t, html, "ABCD2345")
	assert.Contains(t, text, "ABCD2345")
	assert.Contains(t, text, "Ada")
}

func TestTemplateRenderer_RegistrationCancelled(t *testing.T) {
	r := NewTemplateRenderer()

	t.Run("by organizer with reason", func(t *testing.T) {
		_, _, text, err := r.Render("registration_cancelled", &domain.RegistrationCancelledEmailData{
			Name:        "Ada",
			EventTitle:  "GopherCon 2026",
			Reason:      "venue flooded",
			ByOrganizer: true,
		})
		require.NoError(t, err)
		assert.Contains(t, text, "by the organizer")
		assert.Contains(t, text, "venue flooded")
	})

	t.Run("self cancellation omits organizer note", func(t *testing.T) {
		_, _, text, err := r.Render("registration_cancelled", &domain.RegistrationCancelledEmailData{
			Name:       "Ada",
			EventTitle: "GopherCon 2026",
		})
		require.NoError(t, err)
		assert.NotContains(t, text, "by the organizer")
		assert.NotContains(t, text, "Reason:")
	})
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	_, _, _, err := NewTemplateRenderer().Render("password_reset", nil)
	require.Error(t, err)
}
