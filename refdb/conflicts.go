package refdb

import "fmt"

// Conflict is a reference sequence associated with more than one genus, a
// stronger ambiguity than same-genus multi-species (which is tolerated as a
// legitimate ambiguous marker). Conflicts are surfaced for manual curation,
// never auto-resolved.
type Conflict struct {
	SeqID  int64
	Seq    string
	Genera []string
}

// Conflicts is a read-only audit reporting every sequence mapped to more
// than one genus.
func (s *Store) Conflicts() ([]Conflict, error) {
	rows, err := s.db.Query(`SELECT st.sequence_id, sq.seq, t.genus
		FROM sequence_taxon st
		JOIN taxon t ON t.id = st.taxon_id
		JOIN sequence sq ON sq.id = st.sequence_id
		WHERE st.sequence_id IN (
			SELECT st2.sequence_id FROM sequence_taxon st2
			JOIN taxon t2 ON t2.id = st2.taxon_id
			GROUP BY st2.sequence_id
			HAVING COUNT(DISTINCT t2.genus) > 1
		)
		ORDER BY st.sequence_id, t.genus`)
	if err != nil {
		return nil, fmt.Errorf("failed to audit conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []Conflict

	for rows.Next() {
		var (
			seqID    int64
			sequence string
			genus    string
		)

		if err := rows.Scan(&seqID, &sequence, &genus); err != nil {
			return nil, fmt.Errorf("failed to audit conflicts: %w", err)
		}

		if n := len(conflicts); n > 0 && conflicts[n-1].SeqID == seqID {
			if last := &conflicts[n-1]; last.Genera[len(last.Genera)-1] != genus {
				last.Genera = append(last.Genera, genus)
			}

			continue
		}

		conflicts = append(conflicts, Conflict{SeqID: seqID, Seq: sequence, Genera: []string{genus}})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to audit conflicts: %w", err)
	}

	return conflicts, nil
}
