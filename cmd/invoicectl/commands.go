package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/mroshb/receipt_bot/internal/database"
	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/internal/receipt"
	"github.com/mroshb/receipt_bot/internal/repositories"
	"github.com/mroshb/receipt_bot/internal/services"
	"github.com/mroshb/receipt_bot/internal/validation"
	"github.com/mroshb/receipt_bot/pkg/logger"
	"github.com/mroshb/receipt_bot/pkg/numerals"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupLogger(c *cli.Context) error {
	logger.Init(c.String("log-level"), false)
	return nil
}

func policyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "policy",
		Usage:   "weight_priced or pre_valued",
		Value:   string(pricing.DefaultKind),
		EnvVars: []string{"PRICING_POLICY"},
	}
}

func localeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "locale",
		Usage:   "arabic or western digits",
		Value:   string(numerals.Arabic),
		EnvVars: []string{"DISPLAY_LOCALE"},
	}
}

var totalCommand = &cli.Command{
	Name:      "total",
	Usage:     "recompute row and invoice totals of a JSON invoice",
	ArgsUsage: "<file.json>",
	Flags: []cli.Flag{
		policyFlag(),
		&cli.BoolFlag{Name: "check", Usage: "fail when the invoice is incomplete"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: invoicectl total <file.json>", 1)
		}
		data, err := os.ReadFile(c.Args().First())
		if err != nil {
			return err
		}
		var inv models.Invoice
		if err := json.Unmarshal(data, &inv); err != nil {
			return cli.Exit("invalid invoice JSON: "+err.Error(), 1)
		}

		fallback, err := pricing.ParseKind(c.String("policy"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		p := pricing.ForInvoice(&inv, fallback)
		pricing.Recalculate(&inv, p)

		w := c.App.Writer
		for i := range inv.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, inv.Items[i].Description, numerals.FormatFixed(inv.Items[i].Total))
		}
		fmt.Fprintf(w, "total\t%s\t%s\n", p.Kind(), numerals.FormatFixed(inv.TotalAmount))

		if c.Bool("check") {
			if err := validation.Validate(&inv, p.Kind()); err != nil {
				var res *validation.Result
				if errors.As(err, &res) {
					for _, issue := range res.Issues {
						fmt.Fprintln(c.App.ErrWriter, issue.String())
					}
				}
				return cli.Exit(err.Error(), 2)
			}
		}
		return nil
	},
}

var formatCommand = &cli.Command{
	Name:      "format",
	Usage:     "print a number the way receipts show it",
	ArgsUsage: "<value>",
	Flags:     []cli.Flag{localeFlag()},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: invoicectl format <value>", 1)
		}
		locale, err := numerals.ParseLocale(c.String("locale"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Fprintln(c.App.Writer, locale.Format(c.Args().First()))
		return nil
	},
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "list saved invoices, most recently saved first",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "owner", Usage: "only invoices saved by this Telegram ID"},
		&cli.IntFlag{Name: "limit", Usage: "show at most this many"},
	},
	Action: func(c *cli.Context) error {
		svc, db, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeDB(db)

		snaps, err := svc.Summaries(c.Int64("owner"), c.Int("limit"))
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%d\n",
				snap.Key, models.KeyLabel(snap.Key), numerals.FormatFixed(snap.TotalAmount), snap.ItemCount)
		}
		return nil
	},
}

var showCommand = &cli.Command{
	Name:      "show",
	Usage:     "print a saved invoice",
	ArgsUsage: "<key>",
	Flags:     []cli.Flag{localeFlag()},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: invoicectl show <key>", 1)
		}
		locale, err := numerals.ParseLocale(c.String("locale"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		svc, db, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeDB(db)

		inv, err := svc.Load(keyArg(c))
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, receipt.Prepare(inv, locale).Summary())
		return nil
	},
}

var deleteCommand = &cli.Command{
	Name:      "delete",
	Usage:     "delete a saved invoice",
	ArgsUsage: "<key>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: invoicectl delete <key>", 1)
		}
		svc, db, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeDB(db)

		key := keyArg(c)
		if _, err := svc.Load(key); err != nil {
			return err
		}
		if err := svc.Delete(key); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "deleted", key)
		return nil
	},
}

var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "render a saved invoice to PDF or XLSX",
	ArgsUsage: "<key>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "pdf", Usage: "write the printable receipt here"},
		&cli.StringFlag{Name: "xlsx", Usage: "write the workbook here"},
		&cli.StringFlag{Name: "page", Value: receipt.PageA5.Name, EnvVars: []string{"RECEIPT_PAGE"}},
		&cli.StringFlag{Name: "font", Usage: "TTF font with Arabic glyphs", EnvVars: []string{"RECEIPT_FONT_PATH"}},
		localeFlag(),
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 || (c.String("pdf") == "" && c.String("xlsx") == "") {
			return cli.Exit("usage: invoicectl export <key> --pdf <out> | --xlsx <out>", 1)
		}
		locale, err := numerals.ParseLocale(c.String("locale"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		page, err := receipt.ParsePageSize(c.String("page"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		svc, db, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeDB(db)

		inv, err := svc.Load(keyArg(c))
		if err != nil {
			return err
		}

		if out := c.String("pdf"); out != "" {
			data, err := receipt.PDF(inv, receipt.Options{Locale: locale, Page: page, FontPath: c.String("font")})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "wrote", out)
		}
		if out := c.String("xlsx"); out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := receipt.RenderXLSX(f, inv, locale); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "wrote", out)
		}
		return nil
	},
}

var importCommand = &cli.Command{
	Name:      "import",
	Usage:     "read a receipt workbook and optionally save it",
	ArgsUsage: "<file.xlsx>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "save", Usage: "store the invoice instead of only printing it"},
		&cli.Int64Flag{Name: "owner", Usage: "Telegram ID recorded as the saver"},
		policyFlag(),
		localeFlag(),
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: invoicectl import <file.xlsx>", 1)
		}
		locale, err := numerals.ParseLocale(c.String("locale"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fallback, err := pricing.ParseKind(c.String("policy"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		f, err := os.Open(c.Args().First())
		if err != nil {
			return err
		}
		header, items, err := receipt.ReadXLSX(f)
		f.Close()
		if err != nil {
			return err
		}

		kind := fallback
		if recorded, err := pricing.ParseKind(header.Policy); err == nil {
			kind = recorded
		}

		svc, db, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeDB(db)

		inv, err := svc.Import(kind, header, items)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, receipt.Prepare(inv, locale).Summary())

		if c.Bool("save") {
			key, err := svc.Save(c.Int64("owner"), inv)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "saved", key)
		}
		return nil
	},
}

// keyArg accepts either a full key or the label shown in menus.
func keyArg(c *cli.Context) string {
	key := c.Args().First()
	if _, err := strconv.ParseInt(key, 10, 64); err == nil {
		return models.KeyPrefix + key
	}
	return key
}

func openStore(c *cli.Context) (*services.InvoiceService, *gorm.DB, error) {
	db, err := database.Open(c.String("db"), gormlogger.Silent)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, nil, err
	}

	var key []byte
	if k := c.String("aes-key"); k != "" {
		key = []byte(k)
	}
	repo := repositories.NewInvoiceRepository(db, key)

	kind := pricing.DefaultKind
	if c.IsSet("policy") {
		if k, err := pricing.ParseKind(c.String("policy")); err == nil {
			kind = k
		}
	}
	return services.NewInvoiceService(repo, kind), db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
