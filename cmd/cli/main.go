// Command vm is a CLI storefront for the village-mart service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/village-mart/internal/cart"
	"github.com/and161185/village-mart/internal/client"
	"github.com/and161185/village-mart/internal/localstore"
	"github.com/and161185/village-mart/internal/session"
)

// ---- config/state dir ----

// cfgDir returns "" when neither XDG_CONFIG_HOME nor a home directory is known.
func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "village-mart")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "village-mart")
}

// openStorage falls back to process memory when there is no state dir.
func openStorage(dir, name string) localstore.Storage {
	if dir == "" {
		return localstore.NewMemStorage(nil)
	}
	return localstore.NewFileStorage(dir, name)
}

func defaultAPI() string {
	if v := os.Getenv("VM_API_URL"); v != "" {
		return v
	}
	return "http://localhost:5000"
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// statusText renders an error the way the storefront shows it to the user.
func statusText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

const usageText = `vm CLI
Usage:
  vm [-api URL] <cmd> [args]

Commands:
  version
  register   -u <username> -p <password> [-phone <phone>]
  login      -u <username> -p <password>           (saves session)
  logout                                           (also clears the cart)
  whoami
  products   [-q <term>]
  add        -id <product id>
  rm         -id <product id>
  inc        -id <product id>
  dec        -id <product id>
  clear
  cart
  checkout
  profile
  set-phone  -phone <phone>                        (empty clears)
  bookings
  contact    -name <name> -msg <message>
  services
  news
`

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

type app struct {
	out, errOut io.Writer
	cart        *cart.Store
	sess        *session.Session
	api         *client.API
}

func (a *app) fail(err error) int {
	fmt.Fprintln(a.errOut, statusText(err))
	if client.IsStatus(err, http.StatusUnauthorized) && a.sess.IsAuthenticated() {
		if err := a.sess.Expire(); err != nil {
			fmt.Fprintln(a.errOut, "warning: session not removed:", err)
		}
		fmt.Fprintf(a.errOut, "session expired, please log in again (redirect: %s)\n", client.LoginRedirect)
	}
	return 1
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("vm", flag.ContinueOnError)
	global.SetOutput(stderr)
	apiURL := global.String("api", defaultAPI(), "server base URL")
	global.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() < 1 {
		global.Usage()
		return 2
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	dir := cfgDir()
	if dir == "" {
		fmt.Fprintln(stderr, "warning: no config directory, cart and session are not kept")
	}
	c := cart.New(openStorage(dir, cart.FileName))
	sess := session.New(openStorage(dir, session.FileName), c)
	a := &app{
		out:    stdout,
		errOut: stderr,
		cart:   c,
		sess:   sess,
		api:    client.New(*apiURL, client.WithToken(sess.Token)),
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch cmd {

	case "version":
		fmt.Fprintf(stdout, "vm %s (%s)\n", version, buildDate)
		return 0

	case "register":
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		phone := fs.String("phone", "", "phone (optional)")
		if fs.Parse(rest) != nil {
			return 2
		}
		if *u == "" || *p == "" {
			fmt.Fprintln(stderr, "need -u and -p")
			return 1
		}
		var ph *string
		if *phone != "" {
			ph = phone
		}
		user, err := a.api.Register(ctx, *u, *p, ph)
		if err != nil {
			return a.fail(err)
		}
		printJSON(stdout, user)
		return 0

	case "login":
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		if fs.Parse(rest) != nil {
			return 2
		}
		if *u == "" || *p == "" {
			fmt.Fprintln(stderr, "need -u and -p")
			return 1
		}
		id, err := a.sess.Login(ctx, a.api, *u, *p)
		if err != nil {
			return a.fail(err)
		}
		if err := a.sess.Err(); err != nil {
			fmt.Fprintln(stderr, "warning: session not saved:", err)
		}
		fmt.Fprintf(stdout, "logged in as %s (id %d)\n", id.Username, id.UserID)
		return 0

	case "logout":
		if err := a.sess.Logout(); err != nil {
			return a.fail(err)
		}
		fmt.Fprintln(stdout, "ok")
		return 0

	case "whoami":
		id, ok := a.sess.Identity()
		if !ok {
			fmt.Fprintln(stdout, "anonymous")
			return 0
		}
		fmt.Fprintf(stdout, "%s (id %d)\n", id.Username, id.UserID)
		return 0

	case "products":
		q := fs.String("q", "", "search term")
		if fs.Parse(rest) != nil {
			return 2
		}
		products, err := client.Catalog(ctx, a.api)
		if err != nil {
			fmt.Fprintln(stderr, "warning: server catalog unavailable:", statusText(err))
		}
		for _, p := range client.Filter(products, *q) {
			fmt.Fprintf(stdout, "%3d  %-24s %8s\n", p.ID, p.Name, p.Price.StringFixed(2))
		}
		return 0

	case "add", "rm", "inc", "dec":
		id := fs.Int64("id", 0, "product id")
		if fs.Parse(rest) != nil {
			return 2
		}
		if *id <= 0 {
			fmt.Fprintln(stderr, "need -id")
			return 1
		}
		switch cmd {
		case "add":
			products, err := client.Catalog(ctx, a.api)
			p, ok := client.Find(products, *id)
			if !ok {
				if err != nil {
					return a.fail(err)
				}
				fmt.Fprintf(stderr, "no product with id %d\n", *id)
				return 1
			}
			a.cart.AddItem(p)
			fmt.Fprintf(stdout, "added %s (%d in cart)\n", p.Name, a.cart.Quantity(p.ID))
		case "rm":
			a.cart.RemoveItem(*id)
		case "inc":
			a.cart.IncreaseQuantity(*id)
		case "dec":
			a.cart.DecreaseQuantity(*id)
		}
		return a.printCart()

	case "clear":
		a.cart.Clear()
		return a.printCart()

	case "cart":
		return a.printCart()

	case "checkout":
		b, err := client.Checkout(ctx, a.sess, a.cart, a.api)
		if err != nil {
			var lr *client.LoginRequiredError
			if errors.As(err, &lr) {
				fmt.Fprintf(stderr, "please log in first (redirect: %s)\n", lr.Redirect)
				return 1
			}
			return a.fail(err)
		}
		fmt.Fprintf(stdout, "booking #%d confirmed\n", b.ID)
		return 0

	case "profile":
		id, ok := a.requireLogin()
		if !ok {
			return 1
		}
		u, err := a.api.User(ctx, id)
		if err != nil {
			return a.fail(err)
		}
		printJSON(stdout, u)
		return 0

	case "set-phone":
		phone := fs.String("phone", "", "phone, empty clears")
		if fs.Parse(rest) != nil {
			return 2
		}
		id, ok := a.requireLogin()
		if !ok {
			return 1
		}
		u, err := a.api.UpdatePhone(ctx, id, phone)
		if err != nil {
			return a.fail(err)
		}
		printJSON(stdout, u)
		return 0

	case "bookings":
		id, ok := a.requireLogin()
		if !ok {
			return 1
		}
		bookings, err := a.api.Bookings(ctx, id)
		if err != nil {
			return a.fail(err)
		}
		for _, b := range bookings {
			fmt.Fprintf(stdout, "#%d  %s  %s\n", b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.Products)
		}
		return 0

	case "contact":
		name := fs.String("name", "", "your name")
		msg := fs.String("msg", "", "message")
		if fs.Parse(rest) != nil {
			return 2
		}
		m, err := a.api.Contact(ctx, *name, *msg)
		if err != nil {
			return a.fail(err)
		}
		fmt.Fprintf(stdout, "message #%d sent\n", m.ID)
		return 0

	case "services":
		services, err := a.api.Services(ctx)
		if err != nil {
			return a.fail(err)
		}
		for _, s := range services {
			fmt.Fprintln(stdout, s.Name)
		}
		return 0

	case "news":
		news, err := a.api.News(ctx)
		if err != nil {
			return a.fail(err)
		}
		for _, n := range news {
			fmt.Fprintf(stdout, "- %s\n", n.Headline)
		}
		return 0

	default:
		global.Usage()
		return 2
	}
}

func (a *app) requireLogin() (int64, bool) {
	id, ok := a.sess.Identity()
	if !ok {
		fmt.Fprintf(a.errOut, "please log in first (redirect: %s)\n", client.LoginRedirect)
		return 0, false
	}
	return id.UserID, true
}

func (a *app) printCart() int {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
	}
	for _, l := range lines {
		fmt.Fprintf(a.out, "%3d  %-24s %3d x %8s = %9s\n",
			l.ProductID, l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	if len(lines) > 0 {
		fmt.Fprintf(a.out, "%d item(s), total %s\n", a.cart.ItemCount(), a.cart.Total().StringFixed(2))
	}
	if err := a.cart.Err(); err != nil {
		fmt.Fprintln(a.errOut, "warning: cart not saved:", err)
	}
	return 0
}
