package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/semillero/core/profile"
)

// listProfiles prints every stored profile, as JSON lines or as an aligned table.
func (cli *commandLine) listProfiles(asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cli.out)
		for p, err := range cli.profiles.List(context.Background()) {
			if err != nil {
				return err
			}
			if err = enc.Encode(p); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tPHONE\tWHATSAPP\tEMAIL ON\tTIME\tUPDATED")
	for p, err := range cli.profiles.List(context.Background()) {
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Identity, dash(p.Phone), yesNo(p.WhatsAppEnabled), yesNo(p.EmailEnabled), p.NotificationTime, updated(p))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func updated(p profile.Profile) string {
	if p.UpdatedAt.IsZero() {
		return "-"
	}
	return p.UpdatedAt.Format("2006-01-02 15:04")
}
