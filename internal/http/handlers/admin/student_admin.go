package admin

import (
	"strconv"

	"github.com/schoolsuite/resultpin/internal/http/response"
	"github.com/schoolsuite/resultpin/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetStudents lists the school's students
func (h *Handler) GetStudents(c *gin.Context) {
	schoolID, ok := getSchoolID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	students, total, err := h.StudentRepo.List(repository.StudentListFilter{
		SchoolID: schoolID,
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch students", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, students, pagination)
}
