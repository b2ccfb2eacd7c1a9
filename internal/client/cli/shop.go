package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/techstore/internal/client/api"
	"github.com/dmitrijs2005/techstore/internal/client/catalog"
	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/dmitrijs2005/techstore/internal/client/profile"
	"github.com/dmitrijs2005/techstore/internal/client/validate"
	"github.com/dmitrijs2005/techstore/internal/filex"
)

func (a *App) Products(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: products <smartphones|chromebooks|windows|macbooks>")
		return nil
	}
	category, err := models.ParseCategory(strings.ToLower(args[0]))
	if err != nil {
		a.println(err.Error())
		return err
	}

	a.println("Loading", string(category), "...")
	if err := a.catalog.Load(ctx, category); err != nil {
		a.term.Error(catalog.LoadErrorMessage(category, err))
		return err
	}
	a.showView(a.catalog.View())
	return nil
}

func (a *App) Brands(ctx context.Context) error {
	brands := a.catalog.Brands()
	if len(brands) == 0 {
		a.println("No products loaded. Use 'products <category>' first.")
		return nil
	}
	a.println("Brands:", strings.Join(brands, ", "))
	return nil
}

// Filter replaces the active filter. Values are comma separated; words after
// q= up to the next key form the search text.
func (a *App) Filter(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "clear" {
		a.showView(a.catalog.SetFilter(catalog.Filter{}))
		return nil
	}
	f, err := parseFilter(args)
	if err != nil {
		a.println(err.Error())
		a.println("Usage: filter brand=apple,samsung os=android price=0-300,500+ q=text | filter clear")
		return err
	}
	a.showView(a.catalog.SetFilter(f))
	return nil
}

func parseFilter(args []string) (catalog.Filter, error) {
	var (
		f    catalog.Filter
		last string
	)
	split := func(v string) []string {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			if last != "q" {
				return catalog.Filter{}, fmt.Errorf("unexpected %q", arg)
			}
			f.Search = strings.TrimSpace(f.Search + " " + arg)
			continue
		}
		last = strings.ToLower(key)
		switch last {
		case "brand", "brands":
			f.Brands = append(f.Brands, split(strings.ToLower(value))...)
		case "os":
			f.OS = append(f.OS, split(strings.ToLower(value))...)
		case "price":
			f.PriceRanges = append(f.PriceRanges, split(value)...)
		case "q", "search":
			last = "q"
			f.Search = value
		default:
			return catalog.Filter{}, fmt.Errorf("unknown filter %q", key)
		}
	}
	return f, nil
}

func (a *App) Page(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: page <n>")
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		a.println("Usage: page <n>")
		return err
	}
	v, ok := a.catalog.SetPage(n)
	if !ok {
		a.println(fmt.Sprintf("No page %d (1-%d)", n, max(v.Page.Pages, 1)))
		return nil
	}
	a.showView(v)
	return nil
}

func (a *App) showView(v catalog.View) {
	if v.Page.Total == 0 {
		if v.Filter.Empty() {
			a.println("No products found.")
		} else {
			a.println("No products match your filters.")
		}
		a.println(v.Page.Summary())
		return
	}

	for _, p := range v.Items {
		name := p.Name
		if name == "" {
			name = strings.TrimSpace(p.Brand + " " + p.Model)
		}
		best := catalog.BestOffer(p.Offers)
		line := fmt.Sprintf("  %-40s R%.2f", name, best.Price)
		if d := catalog.Discount(best); d > 0 {
			line += fmt.Sprintf(" (was R%.2f, -%d%%)", best.OriginalPrice, d)
		}
		if best.Retailer != "" {
			line += " @ " + best.Retailer
		}
		a.println(line)
	}

	var pages []string
	for _, n := range v.Window {
		if n == v.Page.Number {
			pages = append(pages, fmt.Sprintf("[%d]", n))
		} else {
			pages = append(pages, strconv.Itoa(n))
		}
	}
	a.println(v.Page.Summary(), " Pages:", strings.Join(pages, " "))
}

func (a *App) Profile(ctx context.Context) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	u, err := a.profile.Load(rctx)
	if errors.Is(err, profile.ErrNotLoggedIn) {
		a.term.Error(err.Error())
		return err
	}
	if err != nil {
		a.term.Error("Failed to load profile data")
	}

	badge := "Not verified"
	if u.IsVerified() {
		badge = "Verified"
	}
	a.println(fmt.Sprintf("(%s) %s", profile.Initials(u), profile.DisplayName(u)))
	a.println("  Email:  ", u.Email, "["+badge+"]")
	if u.Picture != "" {
		a.println("  Picture:", u.Picture)
	}
	return err
}

func (a *App) ProfileEdit(ctx context.Context) error {
	if !a.session.LoggedIn(ctx) {
		a.term.Error(profile.ErrNotLoggedIn.Error())
		return profile.ErrNotLoggedIn
	}
	first, err := getSimpleText(a.reader, "First name", a.out)
	if err != nil {
		return err
	}
	last, err := getSimpleText(a.reader, "Last name", a.out)
	if err != nil {
		return err
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	if err := a.profile.Update(rctx, first, last); err != nil {
		var (
			apiErr *api.APIError
			valErr *validate.ValidationError
		)
		switch {
		case errors.As(err, &apiErr):
			a.term.Error(api.UserMessage(err, profile.ErrUpdateFailed.Error()))
		case errors.As(err, &valErr), errors.Is(err, profile.ErrUpdateFailed):
			a.term.Error(err.Error())
		default:
			a.term.Error("Error updating profile")
			a.log.Error(ctx, "profile update failed", "error", err)
		}
		return err
	}
	a.term.Success("Profile", "Profile updated successfully!")
	return nil
}

func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: avatar <path>")
		return nil
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	pic, err := a.profile.UploadAvatar(rctx, args[0])
	switch {
	case err == nil:
		a.term.Success("Profile", "Profile picture updated: "+pic)
	case errors.Is(err, filex.ErrTooLarge), errors.Is(err, filex.ErrNotImage),
		errors.Is(err, profile.ErrNotLoggedIn), errors.Is(err, profile.ErrNoStorage):
		a.term.Error(err.Error())
	default:
		a.term.Error("Failed to upload profile picture")
		a.log.Error(ctx, "avatar upload failed", "error", err)
	}
	return err
}
