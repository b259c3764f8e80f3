package vault

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vilshansen/datavault-go/blockstore"
	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
)

func validName(name string) error {
	if name == "" {
		return fault.ErrEmptyName
	}
	if strings.IndexByte(name, constants.TerminatorByte) >= 0 {
		return fault.ErrInvalidCharacter
	}
	return nil
}

func validValue(value string) error {
	if strings.IndexByte(value, constants.TerminatorByte) >= 0 {
		return fault.ErrInvalidCharacter
	}
	return nil
}

func (v *Vault) requireLogin() error {
	if !v.loggedIn {
		return fault.ErrNotLoggedIn
	}
	return nil
}

// root returns the first block of the entry's chain.
func (v *Vault) root(entry string) (uint32, error) {
	id, ok := v.idx.Names.Search(entry)
	if !ok {
		return 0, fault.ErrEntryNotFound
	}
	root, ok := v.idx.Blocks.Search(id)
	if !ok {
		return 0, fault.ErrCorruptIndex
	}
	return root, nil
}

// category returns the id of an existing category, or allocates the next
// one when create is set.
func (v *Vault) category(name string, create bool) (uint8, error) {
	if id, ok := v.idx.Categories.Search(name); ok {
		return id, nil
	}
	if !create {
		return 0, fault.ErrCategoryNotFound
	}
	if v.maxCatID == constants.MaxCategoryID {
		return 0, fault.ErrCategoryLimit
	}
	v.maxCatID++
	v.idx.Categories.Insert(name, v.maxCatID)
	log.Debug().Str("category", name).Uint8("id", v.maxCatID).Msg("category added")
	return v.maxCatID, nil
}

// CreateEntry adds an empty entry called name with a chain of one block
// at the end of the data file.
func (v *Vault) CreateEntry(name string) error {
	if err := v.requireLogin(); err != nil {
		return err
	}
	if err := validName(name); err != nil {
		return err
	}
	if _, ok := v.idx.Names.Search(name); ok {
		return fault.ErrEntryExists
	}

	root, err := v.store.AppendChain()
	if err != nil {
		return err
	}
	v.maxEntryID++
	v.idx.Names.Insert(name, v.maxEntryID)
	v.idx.Blocks.Insert(v.maxEntryID, root)

	log.Debug().Str("entry", name).Uint32("id", v.maxEntryID).Uint32("root", root).Msg("entry created")
	return v.save()
}

// CreateEntryData stores value under category for entry. The entry must
// not hold a value for the category yet.
func (v *Vault) CreateEntryData(entry, category, value string) error {
	if err := v.requireLogin(); err != nil {
		return err
	}
	if err := validName(entry); err != nil {
		return err
	}
	if err := validName(category); err != nil {
		return err
	}
	if err := validValue(value); err != nil {
		return err
	}

	root, err := v.root(entry)
	if err != nil {
		return err
	}
	added := v.maxCatID
	cat, err := v.category(category, true)
	if err != nil {
		return err
	}
	if err := v.store.CreateRecord(root, cat, []byte(value)); err != nil {
		return err
	}
	if v.maxCatID != added {
		return v.save()
	}
	return nil
}

// SetEntryData stores value under category for entry, replacing the value
// held before.
func (v *Vault) SetEntryData(entry, category, value string) error {
	if err := v.requireLogin(); err != nil {
		return err
	}
	if err := validName(entry); err != nil {
		return err
	}
	if err := validName(category); err != nil {
		return err
	}
	if err := validValue(value); err != nil {
		return err
	}

	if _, ok := v.idx.Categories.Search(category); ok {
		err := v.DeleteEntryData(entry, category)
		if err != nil && !errors.Is(err, fault.ErrRecordNotFound) {
			return err
		}
	}
	return v.CreateEntryData(entry, category, value)
}

// DeleteEntryData removes the value stored under category for entry and
// compacts the data file. The data file is untouched when there is no
// such value.
func (v *Vault) DeleteEntryData(entry, category string) error {
	if err := v.requireLogin(); err != nil {
		return err
	}
	root, err := v.root(entry)
	if err != nil {
		return err
	}
	cat, err := v.category(category, false)
	if err != nil {
		return err
	}

	dropped, err := v.store.DeleteRecord(root, cat)
	if err != nil {
		return err
	}
	if len(dropped) == 0 {
		return nil
	}
	blockstore.PatchIndex(v.idx.Blocks, dropped)
	return v.save()
}

// GetEntryData returns the value stored under category for entry.
func (v *Vault) GetEntryData(entry, category string) (string, error) {
	if err := v.requireLogin(); err != nil {
		return "", err
	}
	root, err := v.root(entry)
	if err != nil {
		return "", err
	}
	cat, err := v.category(category, false)
	if err != nil {
		return "", err
	}

	value, err := v.store.Get(root, cat)
	if err != nil {
		return "", err
	}
	out := string(value)
	cryptoutils.ZeroBytes(value)
	return out, nil
}

// Entries lists the entry names in order.
func (v *Vault) Entries() ([]string, error) {
	if err := v.requireLogin(); err != nil {
		return nil, err
	}
	names := make([]string, 0, v.idx.Names.Count())
	for name := range v.idx.Names.All() {
		names = append(names, name)
	}
	return names, nil
}

// Categories lists the category names in order.
func (v *Vault) Categories() ([]string, error) {
	if err := v.requireLogin(); err != nil {
		return nil, err
	}
	names := make([]string, 0, v.idx.Categories.Count())
	for name := range v.idx.Categories.All() {
		names = append(names, name)
	}
	return names, nil
}
