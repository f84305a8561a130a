package rest

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medbook/internal/domain"
	"medbook/pkg/validator"
)

// @Summary Список врачей
// @Description Возвращает одобренных врачей с фильтром по специализации
// @Tags Врачи
// @Accept json
// @Produce json
// @Param specialization query string false "Специализация"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} paginatedResponse "Список врачей"
// @Failure 500 {object} errorResponseBody "Внутренняя ошибка сервера"
// @Router /doctors [get]
func (h *Handler) getDoctors(c *gin.Context) {
	var specialization *string
	if s := c.DefaultQuery("specialization", ""); s != "" {
		specialization = &s
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	filter := domain.DoctorFilter{
		Specialization: specialization,
		OnlyApproved:   true,
		Limit:          limit,
		Offset:         offset,
	}

	doctors, total, err := h.services.Doctor.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("ошибка получения списка врачей", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	page := offset/limit + 1

	paginatedSuccessResponse(c, doctors, total, page, limit)
}

// @Summary Получить врача по ID
// @Tags Врачи
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Success 200 {object} domain.Doctor "Данные врача"
// @Failure 400 {object} errorResponseBody "Неверный формат ID"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Router /doctors/{id} [get]
func (h *Handler) getDoctorByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	doctor, err := h.services.Doctor.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("ошибка получения врача", zap.Error(err), zap.Int64("id", id))
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, doctor)
}

// @Summary Свободные слоты врача
// @Description Возвращает свободные слоты врача на указанную дату
// @Tags Врачи
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Param date query string true "Дата (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{} "Свободные слоты"
// @Failure 400 {object} errorResponseBody "Неверный формат даты или дата в прошлом"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Router /doctors/{id}/free-slots [get]
func (h *Handler) getFreeSlots(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	date := c.Query("date")
	if !validator.ValidateDate(date) {
		badRequestResponse(c, "параметр date обязателен в формате YYYY-MM-DD")
		return
	}

	slots, err := h.services.Appointment.GetFreeSlots(c.Request.Context(), id, date)
	if err != nil {
		h.logger.Warn("ошибка получения свободных слотов", zap.Error(err), zap.Int64("doctorId", id))
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"date": date, "slots": slots})
}

// @Summary Профиль текущего врача
// @Tags Врачи
// @Accept json
// @Produce json
// @Success 200 {object} domain.Doctor "Профиль врача"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 404 {object} errorResponseBody "Профиль врача не найден"
// @Security ApiKeyAuth
// @Router /doctors/me [get]
func (h *Handler) getMyDoctorProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	doctor, err := h.services.Doctor.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warn("профиль врача не найден", zap.Int64("userId", userID), zap.Error(err))
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, doctor)
}

// @Summary Создать профиль врача
// @Description Создает профиль врача для текущего пользователя с ролью doctor
// @Tags Врачи
// @Accept json
// @Produce json
// @Param input body domain.CreateDoctorDTO true "Данные профиля"
// @Success 201 {object} map[string]interface{} "ID созданного профиля"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Требуется роль врача"
// @Security ApiKeyAuth
// @Router /doctors [post]
func (h *Handler) createDoctor(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.CreateDoctorDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	id, err := h.services.Doctor.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.logger.Error("ошибка создания профиля врача", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	createdResponse(c, gin.H{"id": id})
}

// @Summary Обновить профиль врача
// @Tags Врачи
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Param input body domain.UpdateDoctorDTO true "Данные для обновления"
// @Success 200 {object} messageResponseType "Профиль обновлен"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Security ApiKeyAuth
// @Router /doctors/{id} [put]
func (h *Handler) updateDoctor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	if !h.canManageDoctor(c, id) {
		forbiddenResponse(c)
		return
	}

	var req domain.UpdateDoctorDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Doctor.Update(c.Request.Context(), id, req); err != nil {
		h.logger.Error("ошибка обновления профиля врача", zap.Error(err), zap.Int64("id", id))
		domainErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "профиль врача обновлен")
}

// @Summary Обновить расписание врача
// @Description Заменяет недельное расписание приема целиком
// @Tags Врачи
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Param input body domain.WorkingHours true "Недельное расписание"
// @Success 200 {object} messageResponseType "Расписание обновлено"
// @Failure 400 {object} errorResponseBody "Неверное расписание"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Security ApiKeyAuth
// @Router /doctors/{id}/working-hours [put]
func (h *Handler) setWorkingHours(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	if !h.canManageDoctor(c, id) {
		forbiddenResponse(c)
		return
	}

	var hours domain.WorkingHours
	if err := c.ShouldBindJSON(&hours); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Doctor.SetWorkingHours(c.Request.Context(), id, hours); err != nil {
		h.logger.Error("ошибка обновления расписания", zap.Error(err), zap.Int64("id", id))
		domainErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "расписание обновлено")
}

// @Summary Загрузить фото профиля
// @Tags Врачи
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "ID врача"
// @Param file formData file true "Файл изображения"
// @Success 200 {object} messageResponseType "Фото загружено"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Security ApiKeyAuth
// @Router /doctors/{id}/photo [post]
func (h *Handler) uploadDoctorPhoto(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	if !h.canManageDoctor(c, id) {
		forbiddenResponse(c)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequestResponse(c, "файл не найден в запросе")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("ошибка чтения файла", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	if err := h.services.Doctor.UploadProfilePhoto(c.Request.Context(), id, data, header.Filename); err != nil {
		h.logger.Error("ошибка загрузки фото", zap.Error(err), zap.Int64("id", id))
		domainErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "фото профиля загружено")
}

// @Summary Одобрить профиль врача
// @Description Делает профиль врача доступным для записи пациентов
// @Tags Врачи
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Success 200 {object} messageResponseType "Профиль одобрен"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Security ApiKeyAuth
// @Router /doctors/{id}/approve [post]
func (h *Handler) approveDoctor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	if err := h.services.Doctor.Approve(c.Request.Context(), id); err != nil {
		h.logger.Error("ошибка одобрения профиля врача", zap.Error(err), zap.Int64("id", id))
		domainErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "профиль врача одобрен")
}

// @Summary Удалить профиль врача
// @Tags Врачи
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Success 204 {object} nil "Профиль удален"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Security ApiKeyAuth
// @Router /doctors/{id} [delete]
func (h *Handler) deleteDoctor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	if err := h.services.Doctor.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("ошибка удаления профиля врача", zap.Error(err), zap.Int64("id", id))
		domainErrorResponse(c, err)
		return
	}

	noContentResponse(c)
}

// canManageDoctor — профиль может менять администратор или сам врач.
func (h *Handler) canManageDoctor(c *gin.Context, doctorID int64) bool {
	userID, err := getUserID(c)
	if err != nil {
		return false
	}

	role, err := getUserRole(c)
	if err != nil {
		return false
	}

	if role == domain.UserRoleAdmin {
		return true
	}

	if role != domain.UserRoleDoctor {
		return false
	}

	doctor, err := h.services.Doctor.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		return false
	}

	return doctor.ID == doctorID
}
