package tenant

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dealershipColumn = "dealership_id"

// dealershipCallback enforces dealership filtering on query, update and
// delete statements whose context carries a dealership ID.
type dealershipCallback struct {
	required bool
}

// EnableAutoDealershipFilter registers callbacks that automatically add
// dealership_id filtering to queries. Create statements are not filtered:
// the dealership is set explicitly by the application when creating entities.
//
// Repositories that intentionally look up rows across dealerships (to tell a
// missing row from a cross-tenant reference) must use Unscoped sessions when
// this filter is active.
func EnableAutoDealershipFilter(db *gorm.DB, required bool) {
	dc := &dealershipCallback{required: required}
	_ = db.Callback().Query().Before("gorm:query").Register("tenant:before_query", dc.apply)
	_ = db.Callback().Update().Before("gorm:update").Register("tenant:before_update", dc.apply)
	_ = db.Callback().Delete().Before("gorm:delete").Register("tenant:before_delete", dc.apply)
	_ = db.Callback().Row().Before("gorm:row").Register("tenant:before_row", dc.apply)
}

// DisableAutoDealershipFilter removes the callbacks. Mainly for tests.
func DisableAutoDealershipFilter(db *gorm.DB) {
	_ = db.Callback().Query().Remove("tenant:before_query")
	_ = db.Callback().Update().Remove("tenant:before_update")
	_ = db.Callback().Delete().Remove("tenant:before_delete")
	_ = db.Callback().Row().Remove("tenant:before_row")
}

func (dc *dealershipCallback) apply(db *gorm.DB) {
	if db.Statement.Context == nil || db.Statement.Unscoped {
		return
	}
	if dc.hasDealershipCondition(db) {
		return
	}

	id, err := FromContext(db.Statement.Context)
	if err != nil {
		if dc.required || err == ErrInvalidDealershipID {
			_ = db.AddError(err)
		}
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: dealershipColumn},
				Value:  id,
			},
		},
	})
}

// hasDealershipCondition checks whether the statement already filters on the
// dealership column, either through clauses or hand-written SQL.
func (dc *dealershipCallback) hasDealershipCondition(db *gorm.DB) bool {
	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if exprContainsDealership(expr) {
					return true
				}
			}
		}
	}

	sql := db.Statement.SQL.String()
	return sql != "" && strings.Contains(sql, dealershipColumn)
}

func exprContainsDealership(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == dealershipColumn
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == dealershipColumn
		}
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if exprContainsDealership(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if exprContainsDealership(cond) {
				return true
			}
		}
	case clause.Expr:
		return strings.Contains(e.SQL, dealershipColumn)
	}
	return false
}
