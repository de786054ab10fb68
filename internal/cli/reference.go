package cli

import (
	"fmt"

	"github.com/ppiankov/nyaya/internal/api"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/spf13/cobra"
)

var (
	mappingType string
	refSearch   string
	actType     string
	actYear     string
	actMinistry string
	actState    string
	refLimit    int
	refOffset   int
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Section mappings between the old and new criminal codes",
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List section mappings",
	Long: `List section mappings of one type:

  bns_ipc    Bharatiya Nyaya Sanhita ← Indian Penal Code
  bsa_iea    Bharatiya Sakshya Adhiniyam ← Indian Evidence Act
  bnss_crpc  Bharatiya Nagarik Suraksha Sanhita ← Code of Criminal Procedure

Example:
  nyaya mappings list --type bns_ipc --search murder`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := model.ParseMappingType(mappingType)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		page, err := a.client.GetLawMappings(ctx, api.MappingQuery{
			Filters: model.MappingFilters{MappingType: t, Search: refSearch},
			Limit:   a.refLimit(),
			Offset:  refOffset,
		})
		if err != nil {
			return describe(err)
		}
		return a.printer.Mappings(fmt.Sprintf("Mappings (%s)", t), page)
	},
}

var actsCmd = &cobra.Command{
	Use:   "acts",
	Short: "Central and state acts",
}

var actsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List central or state acts",
	Long: `List central (Union) or state acts.

Example:
  nyaya acts list --search arbitration
  nyaya acts list --type state --state Kerala --year 2019`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := model.ParseActType(actType)
		if err != nil {
			return err
		}
		filters := model.ActFilters{Type: t, Search: refSearch, Year: actYear, Ministry: actMinistry}
		if actState != "" {
			if t != model.ActState {
				return fmt.Errorf("--state only applies to --type state")
			}
			filters.State = actState
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		page, err := a.client.ListActs(ctx, api.ActQuery{
			Filters: filters,
			Limit:   a.refLimit(),
			Offset:  refOffset,
		})
		if err != nil {
			return describe(err)
		}
		title := "Central acts"
		if t == model.ActState {
			title = "State acts"
		}
		return a.printer.Acts(title, page)
	},
}

func (a *app) refLimit() int {
	if refLimit > 0 {
		return refLimit
	}
	return a.cfg.Listing.PageSize
}

func init() {
	rootCmd.AddCommand(mappingsCmd, actsCmd)
	mappingsCmd.AddCommand(mappingsListCmd)
	actsCmd.AddCommand(actsListCmd)

	mappingsListCmd.Flags().StringVar(&mappingType, "type", string(model.MappingBNSIPC), "mapping type: bns_ipc, bsa_iea, bnss_crpc")
	actsListCmd.Flags().StringVar(&actType, "type", string(model.ActCentral), "act type: central or state")
	actsListCmd.Flags().StringVar(&actYear, "year", "", "enactment year")
	actsListCmd.Flags().StringVar(&actMinistry, "ministry", "", "administering ministry")
	actsListCmd.Flags().StringVar(&actState, "state", "", "state name (state acts only)")

	for _, c := range []*cobra.Command{mappingsListCmd, actsListCmd} {
		c.Flags().StringVarP(&refSearch, "search", "s", "", "free-text search")
		c.Flags().IntVar(&refLimit, "limit", 0, "page size (default: listing.page_size)")
		c.Flags().IntVar(&refOffset, "offset", 0, "skip this many rows")
	}
}
