package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationService_CreateBootstrapsOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")

	org, err := f.orgs.CreateOrganization(context.Background(), CreateOrganizationInput{Name: "  Acme  ", OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)
	assert.Equal(t, "USD", org.Currency)

	settings, err := f.orgRepo.FindSettings(context.Background(), org.ID)
	require.NoError(t, err)
	assert.False(t, settings.AllowClientInvites)
	assert.True(t, settings.AllowTeamInvites)
	assert.Equal(t, models.TaskViewList, settings.DefaultTaskView)
	assert.Equal(t, "#2563EB", settings.BrandColor)

	assert.EqualValues(t, 1, f.count(t, &models.TeamMember{}, "organization_id = ? AND role = ?", org.ID, models.RoleOwner))

	_, err = f.orgs.CreateOrganization(context.Background(), CreateOrganizationInput{Name: "   ", OwnerID: owner.ID})
	require.ErrorIs(t, err, ErrInvalidOrganizationName)
}

func TestOrganizationService_UpdatePatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	member := f.user(t, "member@example.com")
	org := f.organization(t, owner)
	f.member(t, org.ID, member, models.RoleMember)

	currency := "eur"
	_, err := f.orgs.UpdateOrganization(ctx, org.ID, member.ID, UpdateOrganizationInput{Currency: &currency})
	require.ErrorIs(t, err, ErrNotTeamManager)

	taxID := " DE123 "
	updated, err := f.orgs.UpdateOrganization(ctx, org.ID, owner.ID, UpdateOrganizationInput{
		TaxID:    &taxID,
		Currency: &currency,
		Address:  &AddressInput{City: "Berlin", Country: "DE"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.Name, "untouched fields stay")
	assert.Equal(t, "DE123", updated.TaxID)
	assert.Equal(t, "EUR", updated.Currency)
	require.NotNil(t, updated.Address)
	assert.Equal(t, "Berlin", updated.Address.City)

	bad := "EURO"
	_, err = f.orgs.UpdateOrganization(ctx, org.ID, owner.ID, UpdateOrganizationInput{Currency: &bad})
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestOrganizationService_UpdateSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)

	color := "#ff8800"
	view := models.TaskViewBoard
	settings, err := f.orgs.UpdateSettings(ctx, org.ID, owner.ID, UpdateSettingsInput{BrandColor: &color, DefaultTaskView: &view})
	require.NoError(t, err)
	assert.Equal(t, "#FF8800", settings.BrandColor)
	assert.Equal(t, models.TaskViewBoard, settings.DefaultTaskView)
	assert.True(t, settings.AllowTeamInvites)

	for _, c := range []string{"ff8800", "#ff88", "#gg8800", "#FF880000"} {
		_, err := f.orgs.UpdateSettings(ctx, org.ID, owner.ID, UpdateSettingsInput{BrandColor: &c})
		assert.ErrorIs(t, err, ErrInvalidBrandColor, c)
	}

	gantt := models.TaskView("gantt")
	_, err = f.orgs.UpdateSettings(ctx, org.ID, owner.ID, UpdateSettingsInput{DefaultTaskView: &gantt})
	require.ErrorIs(t, err, ErrInvalidTaskView)
}

// pngHeader is the PNG signature followed by an IHDR chunk header.
const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func TestOrganizationService_UploadLogoStoresReturnedURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)

	url, err := f.orgs.UploadLogo(ctx, org.ID, owner.ID, UploadLogoInput{
		Filename:    "Brand.PNG",
		ContentType: "image/png",
		Size:        int64(len(pngHeader)),
		Body:        strings.NewReader(pngHeader),
	})
	require.NoError(t, err)

	key := fmt.Sprintf("logos/%d-%d.png", org.ID, fixedNow.UnixNano())
	assert.Equal(t, "https://cdn.example.com/"+key, url)
	assert.Equal(t, []byte(pngHeader), f.store.objects[key], "sniffed bytes are stored too")

	stored, err := f.orgs.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, url, stored.LogoURL)
}

func TestOrganizationService_UploadLogoRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	member := f.user(t, "member@example.com")
	org := f.organization(t, owner)
	f.member(t, org.ID, member, models.RoleMember)

	cases := []struct {
		name  string
		actor uint64
		input UploadLogoInput
		want  error
	}{
		{"not an image", owner.ID, UploadLogoInput{Filename: "a.pdf", ContentType: "application/pdf", Size: 10}, ErrInvalidLogoType},
		{"malformed type", owner.ID, UploadLogoInput{Filename: "a.png", ContentType: ";;", Size: 10}, ErrInvalidLogoType},
		{"too large", owner.ID, UploadLogoInput{Filename: "a.png", ContentType: "image/png", Size: 5<<20 + 1}, ErrLogoTooLarge},
		{"member", member.ID, UploadLogoInput{Filename: "a.png", ContentType: "image/png", Size: 10}, ErrNotTeamManager},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.input.Body = strings.NewReader("data")
			_, err := f.orgs.UploadLogo(ctx, org.ID, tc.actor, tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.store.objects)

	f.store.putErr = errBoom
	_, err := f.orgs.UploadLogo(ctx, org.ID, owner.ID, UploadLogoInput{Filename: "a.png", ContentType: "image/png", Size: int64(len(pngHeader)), Body: strings.NewReader(pngHeader)})
	require.ErrorIs(t, err, errBoom)

	stored, err := f.orgs.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LogoURL)
}

func TestOrganizationService_DeleteOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	admin := f.user(t, "admin@example.com")
	org := f.organization(t, owner)
	f.member(t, org.ID, admin, models.RoleAdmin)

	require.ErrorIs(t, f.orgs.DeleteOrganization(ctx, org.ID, admin.ID), ErrNotOrganizationOwner)
	require.NoError(t, f.orgs.DeleteOrganization(ctx, org.ID, owner.ID))

	_, err := f.orgs.GetOrganization(ctx, org.ID)
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	memberships, err := f.orgs.ListOrganizationsForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
}

func TestOrganizationService_UploadLogoTypeComesFromContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)

	script := "<script>alert(document.cookie)</script>"
	_, err := f.orgs.UploadLogo(ctx, org.ID, owner.ID, UploadLogoInput{
		Filename:    "logo.html",
		ContentType: "image/png",
		Size:        int64(len(script)),
		Body:        strings.NewReader(script),
	})
	require.ErrorIs(t, err, ErrInvalidLogoType)

	svg := `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`
	_, err = f.orgs.UploadLogo(ctx, org.ID, owner.ID, UploadLogoInput{
		Filename:    "logo.svg",
		ContentType: "image/svg+xml",
		Size:        int64(len(svg)),
		Body:        strings.NewReader(svg),
	})
	require.ErrorIs(t, err, ErrInvalidLogoType)
	assert.Empty(t, f.store.objects)

	cases := []struct {
		filename string
		body     string
		ext      string
	}{
		{"logo.html", pngHeader, ".png"},
		{"photo", "\xff\xd8\xff\xe0\x00\x10JFIF\x00", ".jpg"},
		{"anim.png", "GIF89a\x01\x00\x01\x00", ".gif"},
		{"logo.webp", "RIFF\x24\x00\x00\x00WEBPVP8 ", ".webp"},
	}
	for _, tc := range cases {
		url, err := f.orgs.UploadLogo(ctx, org.ID, owner.ID, UploadLogoInput{
			Filename:    tc.filename,
			ContentType: "image/png",
			Size:        int64(len(tc.body)),
			Body:        strings.NewReader(tc.body),
		})
		require.NoError(t, err, tc.filename)
		assert.True(t, strings.HasSuffix(url, tc.ext), "%s stored as %s", tc.filename, url)
	}
}
