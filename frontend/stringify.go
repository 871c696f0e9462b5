package frontend

import (
	"fmt"
	"strconv"
	"strings"
)

// StringifyAST renders a program as an indented s-expression. The output is
// used by the `--debug-ast` flag and by parser tests
func StringifyAST(prog *Program) string {
	return stringifyNode(prog)
}

func stringifyNode(generic Node) string {
	switch node := generic.(type) {
	case *Program:
		return fmt.Sprintf("(program (\n%s\n))", indentString(stringifyStmts(node.Statements)))
	case *Block:
		if len(node.Statements) == 0 {
			return "()"
		}

		return fmt.Sprintf("(\n%s\n)", indentString(stringifyStmts(node.Statements)))
	case *TypeExpr:
		return node.Type.String()
	case *VarDecl:
		if node.Init == nil {
			return fmt.Sprintf("(var %s %s)", stringifyNode(node.Type), node.Name.Name)
		}

		return fmt.Sprintf("(var %s %s %s)",
			stringifyNode(node.Type),
			node.Name.Name,
			stringifyNode(node.Init))
	case *FuncDecl:
		params := make([]string, len(node.Params))
		for i, param := range node.Params {
			params[i] = fmt.Sprintf("[%s %s]", stringifyNode(param.Type), param.Name.Name)
		}

		return fmt.Sprintf("(function %s %s (%s) %s)",
			stringifyNode(node.ReturnType),
			node.Name.Name,
			strings.Join(params, ", "),
			stringifyNode(node.Body))
	case *AssignStmt:
		return fmt.Sprintf("(%s %s %s)",
			string(node.Operator),
			node.Target.Name,
			stringifyNode(node.Value))
	case *IfStmt:
		if node.Else == nil {
			return fmt.Sprintf("(if %s %s)",
				stringifyNode(node.Condition),
				stringifyNode(node.Then))
		}

		return fmt.Sprintf("(if %s %s else %s)",
			stringifyNode(node.Condition),
			stringifyNode(node.Then),
			stringifyNode(node.Else))
	case *WhileStmt:
		return fmt.Sprintf("(while %s %s)",
			stringifyNode(node.Condition),
			stringifyNode(node.Body))
	case *ForStmt:
		return fmt.Sprintf("(for %s %s %s)",
			node.Var.Name,
			stringifyNode(node.Range),
			stringifyNode(node.Body))
	case *RangeExpr:
		return fmt.Sprintf("(.. %s %s)",
			stringifyNode(node.Low),
			stringifyNode(node.High))
	case *PrintStmt:
		keyword := "print"
		if node.Newline {
			keyword = "println"
		}

		if len(node.Arguments) == 0 {
			return fmt.Sprintf("(%s)", keyword)
		}

		return fmt.Sprintf("(%s %s)", keyword, stringifyExprs(node.Arguments))
	case *ReturnStmt:
		if node.Argument == nil {
			return "(return)"
		}

		return fmt.Sprintf("(return %s)", stringifyNode(node.Argument))
	case *ExprStmt:
		return stringifyNode(node.Expr)
	case *DispatchExpr:
		if len(node.Arguments) == 0 {
			return fmt.Sprintf("(%s)", node.Root.Name)
		}

		return fmt.Sprintf("(%s %s)", node.Root.Name, stringifyExprs(node.Arguments))
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)",
			string(node.Operator),
			stringifyNode(node.Left),
			stringifyNode(node.Right))
	case *UnaryExpr:
		return fmt.Sprintf("(%s %s)",
			string(node.Operator),
			stringifyNode(node.Operand))
	case *IdentExpr:
		return node.Name
	case *IntegerExpr:
		return strconv.FormatInt(node.Value, 10)
	case *DecimalExpr:
		return strconv.FormatFloat(node.Value, 'g', -1, 64)
	case *StringExpr:
		return strconv.Quote(node.Value)
	case *BoolExpr:
		return node.Lexeme
	default:
		return fmt.Sprintf("<Unknown %T>", node)
	}
}

func stringifyStmts(stmts []Stmt) string {
	lines := make([]string, len(stmts))
	for i, stmt := range stmts {
		lines[i] = stringifyNode(stmt)
	}

	return strings.Join(lines, "\n")
}

func stringifyExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = stringifyNode(expr)
	}

	return strings.Join(parts, " ")
}

func indentString(s string) string {
	lines := strings.Split(s, "\n")

	for i, l := range lines {
		lines[i] = "   " + l
	}

	return strings.Join(lines, "\n")
}
