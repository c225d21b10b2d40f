package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/plants"
)

// PlantRow is the state of one plant at the end of a turn.
type PlantRow struct {
	RunID    string  `db:"run_id" json:"run_id"`
	Turn     int     `db:"turn" json:"turn"`
	PlantID  int     `db:"plant_id" json:"plant_id"`
	Variety  string  `db:"variety" json:"variety"`
	Species  string  `db:"species" json:"species"`
	Radius   int     `db:"radius" json:"radius"`
	X        float64 `db:"x" json:"x"`
	Y        float64 `db:"y" json:"y"`
	Size     float64 `db:"size" json:"size"`
	MaxSize  float64 `db:"max_size" json:"max_size"`
	Capacity float64 `db:"capacity" json:"capacity"`
	CoefR    float64 `db:"coef_r" json:"coef_r"`
	CoefG    float64 `db:"coef_g" json:"coef_g"`
	CoefB    float64 `db:"coef_b" json:"coef_b"`
	InvR     float64 `db:"inv_r" json:"inv_r"`
	InvG     float64 `db:"inv_g" json:"inv_g"`
	InvB     float64 `db:"inv_b" json:"inv_b"`
}

// PlantRows captures every plant of g, in garden order.
func PlantRows(runID string, turn int, g *garden.Garden) []PlantRow {
	rows := make([]PlantRow, 0, g.Len())
	for _, p := range g.Plants() {
		v := p.Variety()
		rows = append(rows, PlantRow{
			RunID:    runID,
			Turn:     turn,
			PlantID:  p.ID(),
			Variety:  v.Name(),
			Species:  v.Species().String(),
			Radius:   v.Radius(),
			X:        p.Position().X,
			Y:        p.Position().Y,
			Size:     p.Size(),
			MaxSize:  p.MaxSize(),
			Capacity: p.ReservoirCapacity(),
			CoefR:    v.Coefficient(plants.NutrientR),
			CoefG:    v.Coefficient(plants.NutrientG),
			CoefB:    v.Coefficient(plants.NutrientB),
			InvR:     p.Inventory(plants.NutrientR),
			InvG:     p.Inventory(plants.NutrientG),
			InvB:     p.Inventory(plants.NutrientB),
		})
	}
	return rows
}

// SaveSnapshots appends plant rows.
func (db *DB) SaveSnapshots(rows []PlantRow) error {
	if len(rows) == 0 {
		return nil
	}
	return db.inTx(func(tx *sqlx.Tx) error { return insertSnapshots(tx, rows) })
}

func insertSnapshots(tx *sqlx.Tx, rows []PlantRow) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamed(`INSERT INTO plant_snapshots
		(run_id, turn, plant_id, variety, species, radius, x, y, size, max_size, capacity,
		 coef_r, coef_g, coef_b, inv_r, inv_g, inv_b)
		VALUES (:run_id, :turn, :plant_id, :variety, :species, :radius, :x, :y, :size, :max_size, :capacity,
		 :coef_r, :coef_g, :coef_b, :inv_r, :inv_g, :inv_b)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r); err != nil {
			return fmt.Errorf("insert snapshot %s turn %d plant %d: %w", r.RunID, r.Turn, r.PlantID, err)
		}
	}
	return nil
}

// Snapshots returns the plant rows of a run at one turn, in plant order.
func (db *DB) Snapshots(runID string, turn int) ([]PlantRow, error) {
	var rows []PlantRow
	err := db.conn.Select(&rows,
		"SELECT * FROM plant_snapshots WHERE run_id = ? AND turn = ? ORDER BY plant_id", runID, turn)
	return rows, err
}

// SnapshotTurns lists the turns at which a run has snapshots.
func (db *DB) SnapshotTurns(runID string) ([]int, error) {
	var turns []int
	err := db.conn.Select(&turns,
		"SELECT DISTINCT turn FROM plant_snapshots WHERE run_id = ? ORDER BY turn", runID)
	return turns, err
}
