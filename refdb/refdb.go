/*******************************************************************************
 * Copyright (c) 2026 Genome Research Ltd.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

// package refdb implements the curated reference database: a relational
// store of taxa, deduplicated marker sequences and the associations between
// them, along with the import operations that build it.
//
// The store follows a single-writer, multiple-reader discipline: import
// operations open it read-write and run inside immediate transactions, while
// classification opens it read-only.

package refdb

import (
	"database/sql"
	"fmt"
	"os"
	"sort"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/wtsi-hgi/ampliclass/seq"
)

const schemaVersion = "1"

// Provenance tags record how a sequence entered the store.
const (
	ProvenanceCurated   = "curated"
	ProvenanceNCBI      = "ncbi_import"
	ProvenanceSynthetic = "synthetic_control"
)

const schema = `
CREATE TABLE taxon (
	id INTEGER PRIMARY KEY,
	ncbi_id INTEGER NOT NULL,
	genus TEXT NOT NULL,
	species TEXT NOT NULL,
	verified INTEGER NOT NULL DEFAULT 1,
	UNIQUE (genus, species)
);
CREATE TABLE synonym (
	name TEXT PRIMARY KEY,
	taxon_id INTEGER NOT NULL REFERENCES taxon (id)
);
CREATE TABLE sequence (
	id INTEGER PRIMARY KEY,
	seq TEXT NOT NULL UNIQUE,
	provenance TEXT NOT NULL
);
CREATE TABLE sequence_taxon (
	sequence_id INTEGER NOT NULL REFERENCES sequence (id),
	taxon_id INTEGER NOT NULL REFERENCES taxon (id),
	PRIMARY KEY (sequence_id, taxon_id)
);
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Taxon is a species-level taxonomy entry. The same NCBI taxonomy id may map
// to multiple (genus, species) entries and vice versa; the pair itself is
// unique.
type Taxon struct {
	ID       int64
	NCBIID   int64
	Genus    string
	Species  string
	Verified bool
}

// Name returns the binomial "Genus species" name.
func (t Taxon) Name() string {
	return t.Genus + " " + t.Species
}

// RefSeq is a deduplicated reference sequence together with every taxon it
// is associated with, ordered by (genus, species).
type RefSeq struct {
	ID         int64
	Seq        string
	Provenance string
	Taxa       []Taxon
}

// Store is a handle on a reference database.
type Store struct {
	db       *sql.DB
	readOnly bool

	lookupSpeciesStmt *sql.Stmt
	lookupSynonymStmt *sql.Stmt
	lookupSeqStmt     *sql.Stmt
	insertSeqStmt     *sql.Stmt
	insertAssocStmt   *sql.Stmt
}

// Create makes a new empty reference database at the given path, erroring if
// one already exists there.
func Create(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, ErrDBExists
	}

	db, err := sql.Open("sqlite3", writeDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create reference database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES ('version', ?)`, schemaVersion); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	return newStore(db, false)
}

// Open opens an existing reference database read-write, for use by the
// database builder operations. Schema mismatch and corruption are fatal.
func Open(path string) (*Store, error) {
	return open(path, false)
}

// OpenReadOnly opens an existing reference database for concurrent
// unsynchronized reads during classification.
func OpenReadOnly(path string) (*Store, error) {
	return open(path, true)
}

func open(path string, readOnly bool) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ErrDBNotExists
	}

	dsn := writeDSN(path)
	if readOnly {
		dsn = "file:" + path + "?mode=ro&_busy_timeout=10000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference database: %w", err)
	}

	var version string

	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&version); err != nil {
		db.Close()

		return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, err)
	}

	if version != schemaVersion {
		db.Close()

		return nil, fmt.Errorf("%w: have %s, want %s", ErrSchemaMismatch, version, schemaVersion)
	}

	return newStore(db, readOnly)
}

func writeDSN(path string) string {
	return "file:" + path + "?_busy_timeout=10000&_txlock=immediate&_fk=1"
}

func newStore(db *sql.DB, readOnly bool) (*Store, error) {
	s := &Store{db: db, readOnly: readOnly}

	for stmt, query := range map[**sql.Stmt]string{
		&s.lookupSpeciesStmt: `SELECT id, ncbi_id, verified FROM taxon WHERE genus = ? AND species = ?`,
		&s.lookupSynonymStmt: `SELECT taxon_id FROM synonym WHERE name = ?`,
		&s.lookupSeqStmt:     `SELECT id FROM sequence WHERE seq = ?`,
		&s.insertSeqStmt:     `INSERT OR IGNORE INTO sequence (seq, provenance) VALUES (?, ?)`,
		&s.insertAssocStmt:   `INSERT OR IGNORE INTO sequence_taxon (sequence_id, taxon_id) VALUES (?, ?)`,
	} {
		var err error

		if *stmt, err = db.Prepare(query); err != nil {
			db.Close()

			return nil, fmt.Errorf("failed to prepare statement: %w", err)
		}
	}

	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddTaxon records a species-level taxon, returning the existing entry's id
// when the (genus, species) pair is already present. Taxa are never deleted;
// a re-added provisional entry becomes verified if the new evidence is
// taxonomy-backed.
func (s *Store) AddTaxon(ncbiID int64, genus, species string, verified bool) (int64, error) {
	if t, ok, err := s.LookupSpecies(genus, species); err != nil {
		return 0, err
	} else if ok {
		if verified && !t.Verified {
			if _, err := s.db.Exec(`UPDATE taxon SET verified = 1, ncbi_id = ? WHERE id = ?`, ncbiID, t.ID); err != nil {
				return 0, fmt.Errorf("failed to verify taxon: %w", err)
			}
		}

		return t.ID, nil
	}

	res, err := s.db.Exec(`INSERT INTO taxon (ncbi_id, genus, species, verified) VALUES (?, ?, ?, ?)`,
		ncbiID, genus, species, verified)
	if err != nil {
		return 0, fmt.Errorf("failed to insert taxon: %w", err)
	}

	return res.LastInsertId()
}

// AddSynonym records an historical or alternate binomial name resolving to
// the given taxon.
func (s *Store) AddSynonym(name string, taxonID int64) error {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO synonym (name, taxon_id) VALUES (?, ?)`, name, taxonID); err != nil {
		return fmt.Errorf("failed to insert synonym: %w", err)
	}

	return nil
}

// LookupSpecies finds the taxon for an exact (genus, species) pair.
func (s *Store) LookupSpecies(genus, species string) (Taxon, bool, error) {
	t := Taxon{Genus: genus, Species: species}

	var verified int

	err := s.lookupSpeciesStmt.QueryRow(genus, species).Scan(&t.ID, &t.NCBIID, &verified)
	if err == sql.ErrNoRows {
		return Taxon{}, false, nil
	} else if err != nil {
		return Taxon{}, false, fmt.Errorf("failed to look up species: %w", err)
	}

	t.Verified = verified != 0

	return t, true, nil
}

// ResolveName resolves a binomial name to a taxon, first directly and then
// via the synonym table.
func (s *Store) ResolveName(name string) (Taxon, bool, error) {
	genus, species, ok := splitBinomial(name)
	if ok {
		if t, found, err := s.LookupSpecies(genus, species); err != nil || found {
			return t, found, err
		}
	}

	var taxonID int64

	err := s.lookupSynonymStmt.QueryRow(name).Scan(&taxonID)
	if err == sql.ErrNoRows {
		return Taxon{}, false, nil
	} else if err != nil {
		return Taxon{}, false, fmt.Errorf("failed to look up synonym: %w", err)
	}

	return s.taxonByID(taxonID)
}

func (s *Store) taxonByID(id int64) (Taxon, bool, error) {
	t := Taxon{ID: id}

	var verified int

	err := s.db.QueryRow(`SELECT ncbi_id, genus, species, verified FROM taxon WHERE id = ?`, id).
		Scan(&t.NCBIID, &t.Genus, &t.Species, &verified)
	if err == sql.ErrNoRows {
		return Taxon{}, false, nil
	} else if err != nil {
		return Taxon{}, false, fmt.Errorf("failed to look up taxon: %w", err)
	}

	t.Verified = verified != 0

	return t, true, nil
}

// AddSequence stores a sequence, deduplicated on its normalized content, and
// associates it with the given taxa. Re-adding an existing sequence adds
// associations without duplicating storage or touching its original
// provenance. It reports whether the sequence was newly created.
func (s *Store) AddSequence(sequence, provenance string, taxonIDs ...int64) (int64, bool, error) {
	sequence = seq.Normalize(sequence)
	if !seq.Valid(sequence) {
		return 0, false, ErrInvalidSequence
	}

	res, err := s.insertSeqStmt.Exec(sequence, provenance)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert sequence: %w", err)
	}

	created, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert sequence: %w", err)
	}

	var seqID int64

	if err := s.lookupSeqStmt.QueryRow(sequence).Scan(&seqID); err != nil {
		return 0, false, fmt.Errorf("failed to look up sequence: %w", err)
	}

	for _, taxonID := range taxonIDs {
		if _, err := s.insertAssocStmt.Exec(seqID, taxonID); err != nil {
			return 0, false, fmt.Errorf("failed to associate sequence with taxon: %w", err)
		}
	}

	return seqID, created > 0, nil
}

// Sequences returns every reference sequence with its full set of taxon
// associations, suitable for building classification indexes.
func (s *Store) Sequences() ([]RefSeq, error) {
	rows, err := s.db.Query(`SELECT id, seq, provenance FROM sequence ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequences: %w", err)
	}
	defer rows.Close()

	var refs []RefSeq

	byID := make(map[int64]int)

	for rows.Next() {
		var r RefSeq

		if err := rows.Scan(&r.ID, &r.Seq, &r.Provenance); err != nil {
			return nil, fmt.Errorf("failed to read sequences: %w", err)
		}

		byID[r.ID] = len(refs)
		refs = append(refs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sequences: %w", err)
	}

	if err := s.attachTaxa(refs, byID); err != nil {
		return nil, err
	}

	return refs, nil
}

func (s *Store) attachTaxa(refs []RefSeq, byID map[int64]int) error {
	rows, err := s.db.Query(`SELECT st.sequence_id, t.id, t.ncbi_id, t.genus, t.species, t.verified
		FROM sequence_taxon st JOIN taxon t ON t.id = st.taxon_id`)
	if err != nil {
		return fmt.Errorf("failed to read associations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seqID    int64
			t        Taxon
			verified int
		)

		if err := rows.Scan(&seqID, &t.ID, &t.NCBIID, &t.Genus, &t.Species, &verified); err != nil {
			return fmt.Errorf("failed to read associations: %w", err)
		}

		t.Verified = verified != 0

		if n, ok := byID[seqID]; ok {
			refs[n].Taxa = append(refs[n].Taxa, t)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read associations: %w", err)
	}

	for n := range refs {
		SortTaxa(refs[n].Taxa)
	}

	return nil
}

// SortTaxa orders taxa by (genus, species), the documented tie-retention
// order used everywhere results are produced.
func SortTaxa(taxa []Taxon) {
	sort.Slice(taxa, func(i, j int) bool {
		if taxa[i].Genus != taxa[j].Genus {
			return taxa[i].Genus < taxa[j].Genus
		}

		return taxa[i].Species < taxa[j].Species
	})
}

// Counts returns the number of taxa, sequences and associations in the
// store.
func (s *Store) Counts() (taxa, sequences, associations int64, err error) {
	for count, query := range map[*int64]string{
		&taxa:         `SELECT COUNT(*) FROM taxon`,
		&sequences:    `SELECT COUNT(*) FROM sequence`,
		&associations: `SELECT COUNT(*) FROM sequence_taxon`,
	} {
		if err = s.db.QueryRow(query).Scan(count); err != nil {
			return 0, 0, 0, fmt.Errorf("failed to count: %w", err)
		}
	}

	return taxa, sequences, associations, nil
}
