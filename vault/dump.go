package vault

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Dump writes the session state for debugging. Key material and values
// are never written.
func (v *Vault) Dump(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "vault\t%s\n", v.dir)
	fmt.Fprintf(tw, "logged in\t%t\n", v.loggedIn)
	if !v.loggedIn {
		return tw.Flush()
	}

	blocks, err := v.store.BlockCount()
	if err != nil {
		return err
	}
	fmt.Fprintf(tw, "data blocks\t%d\n", blocks)
	fmt.Fprintf(tw, "max entry id\t%d\n", v.maxEntryID)
	fmt.Fprintf(tw, "max category id\t%d\n", v.maxCatID)

	fmt.Fprintf(tw, "\nentry\tid\troot\n")
	for name, id := range v.idx.Names.All() {
		root, _ := v.idx.Blocks.Search(id)
		fmt.Fprintf(tw, "%s\t%d\t%d\n", name, id, root)
	}

	fmt.Fprintf(tw, "\ncategory\tid\n")
	for name, id := range v.idx.Categories.All() {
		fmt.Fprintf(tw, "%s\t%d\n", name, id)
	}
	return tw.Flush()
}
